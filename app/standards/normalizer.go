package standards

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Policy decides which formatting differences collapse into one key.
type Policy struct {
	// FoldOrganizationPrefix drops leading "ETSI" tokens so that
	// "ETSI EN 300 328" and "EN 300 328" share a key.
	FoldOrganizationPrefix bool `yaml:"fold_organization_prefix" json:"fold_organization_prefix"`
	// VersionSensitive keeps version suffixes ("V2.2.3", ":2014") in the key.
	VersionSensitive bool `yaml:"version_sensitive" json:"version_sensitive"`
}

func DefaultPolicy() Policy {
	return Policy{FoldOrganizationPrefix: true}
}

var (
	dashReplacer = strings.NewReplacer(
		"\u2010", "-", "\u2011", "-", "\u2012", "-", "\u2013", "-",
		"\u2014", "-", "\u2015", "-", "\u2212", "-", "\u00ad", "",
	)
	hyphenSpacing = regexp.MustCompile(`\s*-\s*`)
	colonSpacing  = regexp.MustCompile(`\s*:\s*`)
	plusSpacing   = regexp.MustCompile(`\s*\+\s*`)
	orgPrefix     = regexp.MustCompile(`^(?:ETSI )+`)
	versionSuffix = regexp.MustCompile(`(?:\s+V\d+(?:\.\d+)+|:\d{4}(?:\+A[C0-9]*(?::\d{4})?)*|\s*\(\d{4}(?:-\d{2})?\))$`)
)

var embeddedVersion = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\bV(\d+(?:\.\d+)+)\b`),
	regexp.MustCompile(`\s*:\s*(\d{4})\b`),
	regexp.MustCompile(`\s*\((\d{4})\)`),
}

type Normalizer struct {
	policy Policy
}

func NewNormalizer(policy Policy) *Normalizer {
	return &Normalizer{policy: policy}
}

func (n *Normalizer) Policy() Policy {
	return n.policy
}

// Run returns the comparison key for raw. It is pure and idempotent.
func (n *Normalizer) Run(raw string) string {
	s := raw
	for {
		next := n.pass(s)
		if next == s {
			return s
		}
		s = next
	}
}

// Key builds the key for an identifier whose version was captured separately.
func (n *Normalizer) Key(number, version string) string {
	if version == "" || !n.policy.VersionSensitive {
		return n.Run(number)
	}
	return n.Run(number + " " + version)
}

// pass folds the Unicode form once and then tidies the string until no
// rule changes it. Upper-casing can produce sequences NFKC composes, so Run
// repeats pass until the whole form is stable.
func (n *Normalizer) pass(s string) string {
	s = norm.NFKC.String(s)
	s = width.Fold.String(s)
	s = dashReplacer.Replace(s)
	// A Caser is stateful, so one is made per call.
	s = cases.Upper(language.Und).String(s)

	for {
		next := n.tidy(s)
		if next == s {
			return s
		}
		s = next
	}
}

// tidy only ever removes characters, so repeating it terminates.
func (n *Normalizer) tidy(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = hyphenSpacing.ReplaceAllString(s, "-")
	s = colonSpacing.ReplaceAllString(s, ":")
	s = plusSpacing.ReplaceAllString(s, "+")
	s = strings.Trim(s, " ,;.")

	if n.policy.FoldOrganizationPrefix {
		s = orgPrefix.ReplaceAllString(s, "")
	}

	if !n.policy.VersionSensitive {
		s = strings.TrimSpace(versionSuffix.ReplaceAllString(s, ""))
	}

	return s
}

var canonical = NewNormalizer(Policy{VersionSensitive: true})

// Canonical applies the policy-free part of normalization: Unicode and width
// folding, dash unification, upper-casing and spacing. It keeps prefixes and
// versions, so it is safe for storing display values.
func Canonical(raw string) string {
	return canonical.Run(raw)
}

// SplitVersion separates a version designation embedded in raw.
// "EN 301 489-17 V3.3.1" gives ("EN 301 489-17", "V3.3.1");
// "IEC 61000-4-2:2008" gives ("IEC 61000-4-2", "2008").
func SplitVersion(raw string) (number, version string) {
	for i, re := range embeddedVersion {
		loc := re.FindStringSubmatchIndex(raw)
		if loc == nil {
			continue
		}
		version = raw[loc[2]:loc[3]]
		if i == 0 {
			version = "V" + version
		}
		number = strings.TrimSpace(raw[:loc[0]] + raw[loc[1]:])
		return number, version
	}
	return strings.TrimSpace(raw), ""
}
