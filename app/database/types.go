package database

import (
	"time"

	"github.com/lysyi3m/standards-comb/app/standards"
)

// Comparison is one stored comparison run.
type Comparison struct {
	ID              string                      `json:"id"` // Database UUID
	Directive       string                      `json:"directive"`
	Source          string                      `json:"source"` // certificate file or upload name
	Coverage        float64                     `json:"coverage_percentage"`
	Matched         int                         `json:"matched"`
	OfficialOnly    int                         `json:"official_only"`
	CertificateOnly int                         `json:"certificate_only"`
	ComparedAt      time.Time                   `json:"compared_at"`
	Result          *standards.ComparisonResult `json:"result,omitempty"` // only loaded by GetComparison
}
