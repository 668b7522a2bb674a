package analysis

import (
	"time"
)

// Organ is the anatomical category selected as analysis subject.
// It drives routing and request labeling only.
type Organ string

const (
	OrganHeart  Organ = "heart"
	OrganLungs  Organ = "lungs"
	OrganBrain  Organ = "brain"
	OrganLiver  Organ = "liver"
	OrganKidney Organ = "kidney"
	OrganEye    Organ = "eye"
)

var organLabels = map[Organ]string{
	OrganHeart:  "Heart",
	OrganLungs:  "Lungs",
	OrganBrain:  "Brain",
	OrganLiver:  "Liver",
	OrganKidney: "Kidney",
	OrganEye:    "Eye",
}

// Label returns the display label for the organ, falling back to the raw
// name when the organ is not part of the catalog.
func (o Organ) Label() string {
	if l, ok := organLabels[o]; ok {
		return l
	}
	return string(o)
}

// OrganInfo is one entry of the selection grid.
type OrganInfo struct {
	Name  Organ  `json:"name"`
	Label string `json:"label"`
}

// Catalog lists the organs offered for analysis, in display order.
func Catalog() []OrganInfo {
	organs := []Organ{OrganHeart, OrganLungs, OrganBrain, OrganLiver, OrganKidney, OrganEye}
	out := make([]OrganInfo, 0, len(organs))
	for _, o := range organs {
		out = append(out, OrganInfo{Name: o, Label: o.Label()})
	}
	return out
}

// ImageID identifies one staged image.
type ImageID string

// StagedImage is a file chosen by the user but not yet submitted. The
// preview URL points at a locally owned object-store resource that must be
// released when the image is removed or the workspace is torn down.
type StagedImage struct {
	ID          ImageID   `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	PreviewURL  string    `json:"preview_url"`
	StagedAt    time.Time `json:"staged_at"`
}

// PatientInfo holds the free-text/numeric form fields describing the
// patient. Empty strings are allowed for unfilled fields.
type PatientInfo struct {
	Age            string `json:"age"`
	Symptoms       string `json:"symptoms"`
	MedicalHistory string `json:"medical_history"`
	AdditionalInfo string `json:"additional_info"`
}

// Result is the backend's analysis payload. Optional fields may be absent;
// rendering must fall back gracefully.
type Result struct {
	ID               string   `json:"id,omitempty"`
	Confidence       float64  `json:"confidence"`
	Findings         []string `json:"findings"`
	Recommendations  []string `json:"recommendations"`
	Summary          string   `json:"summary,omitempty"`
	DetailedAnalysis string   `json:"detailed_analysis,omitempty"`
}
