package standards

import (
	"time"
)

// Family tags the issuing body a pattern recognises.
type Family string

const (
	FamilyEN    Family = "EN"
	FamilyETSI  Family = "ETSI"
	FamilyIEC   Family = "IEC"
	FamilyCISPR Family = "CISPR"
	FamilyANSI  Family = "ANSI"
	FamilyFCC   Family = "FCC"
	FamilyISO   Family = "ISO"
	FamilyASNZS Family = "AS_NZS"
	FamilyKS    Family = "KS"
	FamilyRSS   Family = "RSS"
	FamilyICES  Family = "ICES"
	FamilySEMI  Family = "SEMI"
)

var knownFamilies = map[Family]bool{
	FamilyEN:    true,
	FamilyETSI:  true,
	FamilyIEC:   true,
	FamilyCISPR: true,
	FamilyANSI:  true,
	FamilyFCC:   true,
	FamilyISO:   true,
	FamilyASNZS: true,
	FamilyKS:    true,
	FamilyRSS:   true,
	FamilyICES:  true,
	FamilySEMI:  true,
}

func (f Family) Valid() bool {
	return knownFamilies[f]
}

// Document is a block of extracted text plus where it came from.
// Source is provenance only and never interpreted.
type Document struct {
	Text   string
	Source string
}

type ExtractedStandard struct {
	Raw         string `json:"raw"`
	Family      Family `json:"family"`
	Version     string `json:"version,omitempty"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

type OfficialStandard struct {
	Number       string     `json:"number"`
	Version      string     `json:"version,omitempty"`
	Directive    string     `json:"directive"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	PublishedOn  string     `json:"published_on,omitempty"`
	AmendedOn    *time.Time `json:"amended_on,omitempty"`
	SupersededBy string     `json:"superseded_by,omitempty"`
	Supersedes   string     `json:"supersedes,omitempty"`
	Reference    string     `json:"reference,omitempty"`
}

// NewOfficialStandard canonicalizes number. A version embedded in number is
// moved to Version unless version is already set.
func NewOfficialStandard(number, version, directive, title string) OfficialStandard {
	if version == "" {
		number, version = SplitVersion(number)
	}

	return OfficialStandard{
		Number:    Canonical(number),
		Version:   Canonical(version),
		Directive: directive,
		Title:     title,
		Status:    StatusActive,
	}
}

const (
	StatusActive     = "Active"
	StatusWithdrawn  = "Withdrawn"
	StatusSuperseded = "Superseded"
)

type AccreditationScope struct {
	Certificate CertificateInfo     `json:"certificate"`
	Standards   []ExtractedStandard `json:"standards"`
	ExtractedAt time.Time           `json:"extracted_at"`
	Source      string              `json:"source"`
}

// ByCategory groups the scope's standards by category, keeping input order
// within each group.
func (s AccreditationScope) ByCategory() map[string][]ExtractedStandard {
	grouped := make(map[string][]ExtractedStandard)
	for _, std := range s.Standards {
		grouped[std.Category] = append(grouped[std.Category], std)
	}
	return grouped
}

type MatchedPair struct {
	Official  OfficialStandard  `json:"official"`
	Extracted ExtractedStandard `json:"extracted"`
}

type ComparisonResult struct {
	Matched         []MatchedPair       `json:"matched"`
	OfficialOnly    []OfficialStandard  `json:"official_only"`
	CertificateOnly []ExtractedStandard `json:"certificate_only"`
	Coverage        float64             `json:"coverage_percentage"`
	ComparedAt      time.Time           `json:"compared_at"`
}

type Summary struct {
	TotalOfficial      int     `json:"total_official"`
	TotalCertificate   int     `json:"total_certificate"`
	Matched            int     `json:"matched"`
	MatchedCertificate int     `json:"matched_certificate"`
	OfficialOnly       int     `json:"official_only"`
	CertificateOnly    int     `json:"certificate_only"`
	Coverage           float64 `json:"coverage_percentage"`
}

// Summary counts standards, not pairs: a key with several versions on one
// side yields more pairs than entries. Matched is the number of official
// entries found on the certificate, MatchedCertificate the reverse.
func (r ComparisonResult) Summary() Summary {
	officials, extracted := r.matchedEntries()
	return Summary{
		TotalOfficial:      len(r.OfficialOnly) + len(officials),
		TotalCertificate:   len(r.CertificateOnly) + len(extracted),
		Matched:            len(officials),
		MatchedCertificate: len(extracted),
		OfficialOnly:       len(r.OfficialOnly),
		CertificateOnly:    len(r.CertificateOnly),
		Coverage:           r.Coverage,
	}
}

// matchedEntries returns the distinct entries of each side that appear in
// Matched, in pair order.
func (r ComparisonResult) matchedEntries() ([]OfficialStandard, []ExtractedStandard) {
	var officials []OfficialStandard
	var extracted []ExtractedStandard
	seenOfficial := make(map[OfficialStandard]bool, len(r.Matched))
	seenExtracted := make(map[ExtractedStandard]bool, len(r.Matched))

	for _, pair := range r.Matched {
		if !seenOfficial[pair.Official] {
			seenOfficial[pair.Official] = true
			officials = append(officials, pair.Official)
		}
		if !seenExtracted[pair.Extracted] {
			seenExtracted[pair.Extracted] = true
			extracted = append(extracted, pair.Extracted)
		}
	}
	return officials, extracted
}

type CategoryCount struct {
	Matched         int `json:"matched"`
	CertificateOnly int `json:"certificate_only"`
}

// Categories counts matched and certificate-only certificate entries per
// category. An entry paired with several official versions counts once.
func (r ComparisonResult) Categories() map[string]CategoryCount {
	counts := make(map[string]CategoryCount)
	_, matched := r.matchedEntries()
	for _, std := range matched {
		c := counts[std.Category]
		c.Matched++
		counts[std.Category] = c
	}
	for _, std := range r.CertificateOnly {
		c := counts[std.Category]
		c.CertificateOnly++
		counts[std.Category] = c
	}
	return counts
}

type Gaps struct {
	MissingInCertificate []string `json:"missing_in_certificate"`
	MissingInOfficial    []string `json:"missing_in_official"`
	Suggestions          []string `json:"suggestions"`
}
