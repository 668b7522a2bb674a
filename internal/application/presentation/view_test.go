package presentation

import (
	"testing"

	domain "github.com/organcare/webapp/internal/domain/analysis"
)

func TestBuildFallbacks(t *testing.T) {
	res := &domain.Result{
		Confidence:      82,
		Findings:        []string{"A"},
		Recommendations: []string{},
	}

	v := Build(domain.OrganHeart, res)

	if v.ConfidenceLabel != "82%" {
		t.Fatalf("confidence label: got %q", v.ConfidenceLabel)
	}
	if len(v.Findings) != 1 || v.Findings[0] != "A" {
		t.Fatalf("findings: got %v", v.Findings)
	}
	if len(v.Recommendations) != 1 || v.Recommendations[0] != defaultRecommendation {
		t.Fatalf("recommendations: got %v", v.Recommendations)
	}
	if v.OrganLabel != "Heart" {
		t.Fatalf("organ label: got %q", v.OrganLabel)
	}
}

func TestBuildFindingsFallBackToSummary(t *testing.T) {
	v := Build(domain.OrganLungs, &domain.Result{Summary: "all clear"})
	if len(v.Findings) != 1 || v.Findings[0] != "all clear" {
		t.Fatalf("findings: got %v", v.Findings)
	}

	v = Build(domain.OrganLungs, &domain.Result{})
	if len(v.Findings) != 1 || v.Findings[0] != defaultFinding {
		t.Fatalf("findings: got %v", v.Findings)
	}
}

func TestBuildClampsFillNotLabel(t *testing.T) {
	v := Build(domain.OrganBrain, &domain.Result{Confidence: 120})
	if v.ConfidenceLabel != "120%" {
		t.Fatalf("label clamped: got %q", v.ConfidenceLabel)
	}
	if v.ConfidenceFill != 100 {
		t.Fatalf("fill: got %v", v.ConfidenceFill)
	}

	v = Build(domain.OrganBrain, &domain.Result{Confidence: -3})
	if v.ConfidenceLabel != "-3%" {
		t.Fatalf("label: got %q", v.ConfidenceLabel)
	}
	if v.ConfidenceFill != 0 {
		t.Fatalf("fill: got %v", v.ConfidenceFill)
	}
}

func TestBuildDetailedSection(t *testing.T) {
	v := Build(domain.OrganEye, &domain.Result{})
	if v.HasDetailed || v.DetailedAnalysis != "" {
		t.Fatal("detailed section present without data")
	}

	v = Build(domain.OrganEye, &domain.Result{DetailedAnalysis: "full report"})
	if !v.HasDetailed || v.DetailedAnalysis != "full report" {
		t.Fatalf("detailed: got %v %q", v.HasDetailed, v.DetailedAnalysis)
	}
}

func TestBuildUnknownOrganLabelFallsBack(t *testing.T) {
	v := Build(domain.Organ("spleen"), &domain.Result{})
	if v.OrganLabel != "spleen" {
		t.Fatalf("label: got %q", v.OrganLabel)
	}
}
