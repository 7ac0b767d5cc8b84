package standards

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

type Comparator struct {
	normalizer *Normalizer
	now        func() time.Time
}

func NewComparator(normalizer *Normalizer) *Comparator {
	return &Comparator{
		normalizer: normalizer,
		now:        time.Now,
	}
}

// Run pairs official and extracted identifiers by normalized key.
//
// For a key shared by official entries O and extracted entries E, every
// entry of O is paired with E[0] and every later entry of E with O[0], so a
// key yields len(O)+len(E)-1 pairs. Coverage counts distinct keys.
func (c *Comparator) Run(official []OfficialStandard, extracted []ExtractedStandard) ComparisonResult {
	officialKeys, officialGroups := groupBy(official, func(o OfficialStandard) string {
		return c.normalizer.Key(o.Number, o.Version)
	})
	extractedKeys, extractedGroups := groupBy(extracted, func(e ExtractedStandard) string {
		return c.normalizer.Key(e.Raw, e.Version)
	})

	result := ComparisonResult{
		Matched:         []MatchedPair{},
		OfficialOnly:    []OfficialStandard{},
		CertificateOnly: []ExtractedStandard{},
		ComparedAt:      c.now().UTC(),
	}

	matchedKeys := 0
	for _, key := range officialKeys {
		officials := officialGroups[key]
		extracts, ok := extractedGroups[key]
		if !ok {
			result.OfficialOnly = append(result.OfficialOnly, officials...)
			continue
		}

		matchedKeys++
		for _, o := range officials {
			result.Matched = append(result.Matched, MatchedPair{Official: o, Extracted: extracts[0]})
		}
		for _, e := range extracts[1:] {
			result.Matched = append(result.Matched, MatchedPair{Official: officials[0], Extracted: e})
		}
	}

	for _, key := range extractedKeys {
		if _, ok := officialGroups[key]; !ok {
			result.CertificateOnly = append(result.CertificateOnly, extractedGroups[key]...)
		}
	}

	result.Coverage = coverage(matchedKeys, len(officialKeys)+len(extractedKeys)-matchedKeys)
	return result
}

// BatchRun compares one certificate against the official list of each directive.
func (c *Comparator) BatchRun(official map[string][]OfficialStandard, extracted []ExtractedStandard) map[string]ComparisonResult {
	results := make(map[string]ComparisonResult, len(official))
	for directive, list := range official {
		results[directive] = c.Run(list, extracted)
	}
	return results
}

// BestDirective returns the directive with the highest coverage, or "" when
// nothing matched at all. Ties go to the lexically smaller directive code.
func BestDirective(results map[string]ComparisonResult) string {
	directives := make([]string, 0, len(results))
	for directive := range results {
		directives = append(directives, directive)
	}
	sort.Strings(directives)

	best := ""
	bestCoverage := 0.0
	for _, directive := range directives {
		if cov := results[directive].Coverage; cov > bestCoverage {
			best = directive
			bestCoverage = cov
		}
	}
	return best
}

// Gaps lists identifiers missing on either side, with review suggestions.
func (r ComparisonResult) Gaps() Gaps {
	gaps := Gaps{
		MissingInCertificate: make([]string, 0, len(r.OfficialOnly)),
		MissingInOfficial:    make([]string, 0, len(r.CertificateOnly)),
		Suggestions:          []string{},
	}

	for _, std := range r.OfficialOnly {
		gaps.MissingInCertificate = append(gaps.MissingInCertificate, joinVersion(std.Number, std.Version))
	}
	for _, std := range r.CertificateOnly {
		gaps.MissingInOfficial = append(gaps.MissingInOfficial, joinVersion(std.Raw, std.Version))
	}

	if n := len(gaps.MissingInCertificate); n > 0 {
		gaps.Suggestions = append(gaps.Suggestions,
			fmt.Sprintf("Consider adding %d official standards to the accreditation scope", n))
	}
	if n := len(gaps.MissingInOfficial); n > 0 {
		gaps.Suggestions = append(gaps.Suggestions,
			fmt.Sprintf("Review %d certificate standards not on the official list", n))
	}

	return gaps
}

func groupBy[T any](items []T, key func(T) string) ([]string, map[string][]T) {
	var order []string
	groups := make(map[string][]T)
	for _, item := range items {
		k := key(item)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], item)
	}
	return order, groups
}

func coverage(matched, union int) float64 {
	if union == 0 {
		return 0.0
	}
	return math.Round(float64(matched)/float64(union)*1000) / 10
}

func joinVersion(number, version string) string {
	return strings.TrimSpace(number + " " + version)
}
