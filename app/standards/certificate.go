package standards

import (
	"regexp"
	"strings"
	"time"
)

type CertificateInfo struct {
	Number            string `json:"number"`
	ValidUntil        string `json:"valid_until"`
	Organization      string `json:"organization"`
	AccreditationBody string `json:"accreditation_body"`
	RevisionDate      string `json:"revision_date"`
}

var (
	certificateNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)certificate\s+number:?\s*([\w.\-]+)`),
		regexp.MustCompile(`(?i)\b(?:A2LA|JAB)\s+cert\.?\s+no\.?:?\s*([\w.\-]+)`),
		regexp.MustCompile(`(?i)\bcert\.?\s+no\.?:?\s*([\w.\-]+)`),
	}
	validityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)valid\s+(?:to|until):?\s*([A-Za-z]+\s+\d{1,2},\s+\d{4})`),
		regexp.MustCompile(`(?i)valid\s+(?:to|until):?\s*(\d{1,2}\s+[A-Za-z]+\s+\d{4})`),
		regexp.MustCompile(`(?i)valid\s+(?:to|until):?\s*(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`(?i)expires?:?\s*([A-Za-z]+\s+\d{1,2},\s+\d{4}|\d{4}-\d{2}-\d{2})`),
	}
	organizationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*([A-Z][A-Za-z0-9&.,' \-]{3,}\b(?:INC|LTD|LLC|CO|CORP|CORPORATION|COMPANY|GMBH|LABORATORY|LABORATORIES|LAB)\b\.?)`),
		regexp.MustCompile(`(?is)scope\s+of\s+accreditation.*?\n\s*([A-Z][A-Z0-9&.,' \-]{5,})\s*\n`),
	}
	revisionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)revised\s+([\d/\-]+)`),
		regexp.MustCompile(`(?i)revision\s+date:?\s*([\d/\-]+)`),
		regexp.MustCompile(`(?i)last\s+updated:?\s*([\d/\-]+)`),
	}
	accreditationBodies = regexp.MustCompile(`\b(A2LA|JAB|UKAS|DAkkS|COFRAC|NVLAP|ILAC)\b`)

	validityLayouts = []string{
		"January 2, 2006",
		"Jan 2, 2006",
		"2 January 2006",
		"2 Jan 2006",
		"2006-01-02",
	}
)

// ParseCertificateInfo reads certificate metadata out of scope text. Fields
// that cannot be found are left empty.
func ParseCertificateInfo(text string) CertificateInfo {
	info := CertificateInfo{
		Number:       firstSubmatch(certificateNumberPatterns, text),
		ValidUntil:   firstSubmatch(validityPatterns, text),
		RevisionDate: firstSubmatch(revisionPatterns, text),
	}

	for _, re := range organizationPatterns {
		if org := firstSubmatch([]*regexp.Regexp{re}, text); len(org) > 5 {
			info.Organization = org
			break
		}
	}

	if m := accreditationBodies.FindStringSubmatch(text); m != nil {
		info.AccreditationBody = m[1]
	}

	return info
}

// ValidUntilTime parses ValidUntil. ok is false when it is empty or in an
// unknown layout.
func (c CertificateInfo) ValidUntilTime() (time.Time, bool) {
	value := strings.Join(strings.Fields(c.ValidUntil), " ")
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range validityLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsValid reports whether the certificate is still valid on now's date.
func (c CertificateInfo) IsValid(now time.Time) bool {
	until, ok := c.ValidUntilTime()
	if !ok {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !until.Before(today)
}

func firstSubmatch(patterns []*regexp.Regexp, text string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
