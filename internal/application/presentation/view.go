package presentation

import (
	"strconv"

	domain "github.com/organcare/webapp/internal/domain/analysis"
)

const (
	defaultFinding        = "No significant findings detected in the analysis."
	defaultRecommendation = "Continue regular monitoring. Consult with a healthcare professional for detailed interpretation."
)

// ChartPoint is one datum of the result-page charts.
type ChartPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ResultView is the fully resolved render model for one analysis result.
// All fallback rules are applied here so rendering stays dumb.
type ResultView struct {
	Organ            string       `json:"organ"`
	OrganLabel       string       `json:"organ_label"`
	ConfidenceLabel  string       `json:"confidence_label"`
	ConfidenceFill   float64      `json:"confidence_fill"`
	Findings         []string     `json:"findings"`
	Recommendations  []string     `json:"recommendations"`
	HasDetailed      bool         `json:"has_detailed_analysis"`
	DetailedAnalysis string       `json:"detailed_analysis,omitempty"`
	Distribution     []ChartPoint `json:"distribution"`
	RiskAssessment   []ChartPoint `json:"risk_assessment"`
}

// Build is a pure function of the analysis result. The confidence label
// renders the value verbatim; only the ring fill is clamped to [0,100].
// Empty findings fall back to the summary (or a default sentence), empty
// recommendations to a default monitoring message.
func Build(organ domain.Organ, res *domain.Result) ResultView {
	v := ResultView{
		Organ:           string(organ),
		OrganLabel:      organ.Label(),
		ConfidenceLabel: strconv.FormatFloat(res.Confidence, 'f', -1, 64) + "%",
		ConfidenceFill:  clamp(res.Confidence, 0, 100),
		Findings:        res.Findings,
		Recommendations: res.Recommendations,
	}

	if len(v.Findings) == 0 {
		fallback := res.Summary
		if fallback == "" {
			fallback = defaultFinding
		}
		v.Findings = []string{fallback}
	}
	if len(v.Recommendations) == 0 {
		v.Recommendations = []string{defaultRecommendation}
	}
	if res.DetailedAnalysis != "" {
		v.HasDetailed = true
		v.DetailedAnalysis = res.DetailedAnalysis
	}

	v.Distribution = []ChartPoint{
		{Name: "Normal", Value: 75},
		{Name: "Abnormal", Value: 20},
		{Name: "Critical", Value: 5},
	}
	v.RiskAssessment = []ChartPoint{
		{Name: "Low Risk", Value: 60},
		{Name: "Medium Risk", Value: 30},
		{Name: "High Risk", Value: 10},
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
