package standards

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const identifierPattern = `(ETSI |etsi )?(EN|en|IEC|iec) [0-9]{3} [0-9]{3}(-[0-9]{1,2})?( V[0-9]\.[0-9]\.[0-9]|:20[0-9]{2})?`

var propertyPolicies = []Policy{
	DefaultPolicy(),
	{FoldOrganizationPrefix: true, VersionSensitive: true},
	{},
}

func genIdentifier() gopter.Gen {
	return gen.RegexMatch(identifierPattern)
}

var identifierFragments = []string{
	"ETSI", "etsi", "ETSI ", " ", "\t", ".", ",", ";", "-", "\u2013", ":", "+",
	"EN", "300", "328", "V2.2.2", ":2014", "(2019)", "A11",
}

// genFragments mixes separators, prefixes and versions in any order.
func genFragments() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, len(identifierFragments)-1)).Map(func(picks []int) string {
		var b strings.Builder
		for _, i := range picks {
			b.WriteString(identifierFragments[i])
		}
		return b.String()
	})
}

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 12
	return parameters
}

func TestNormalizer_Properties(t *testing.T) {
	for _, policy := range propertyPolicies {
		n := NewNormalizer(policy)
		properties := gopter.NewProperties(propertyParameters())

		properties.Property(fmt.Sprintf("idempotent on identifiers %+v", policy), prop.ForAll(
			func(raw string) bool {
				once := n.Run(raw)
				return n.Run(once) == once
			},
			genIdentifier(),
		))

		properties.Property(fmt.Sprintf("idempotent on letters %+v", policy), prop.ForAll(
			func(raw string) bool {
				once := n.Run(raw)
				return n.Run(once) == once
			},
			gen.AlphaString(),
		))

		properties.Property(fmt.Sprintf("idempotent on separators and prefixes %+v", policy), prop.ForAll(
			func(raw string) bool {
				once := n.Run(raw)
				return n.Run(once) == once
			},
			genFragments(),
		))

		properties.Property(fmt.Sprintf("whitespace insensitive %+v", policy), prop.ForAll(
			func(raw string, width int) bool {
				padded := "\t" + strings.ReplaceAll(raw, " ", strings.Repeat(" ", width)) + " \n"
				return n.Run(padded) == n.Run(raw)
			},
			genIdentifier(),
			gen.IntRange(1, 4),
		))

		properties.Property(fmt.Sprintf("case insensitive %+v", policy), prop.ForAll(
			func(raw string) bool {
				return n.Run(strings.ToLower(raw)) == n.Run(strings.ToUpper(raw))
			},
			genIdentifier(),
		))

		properties.TestingRun(t)
	}
}

func toExtracted(raws []string) []ExtractedStandard {
	extracted := make([]ExtractedStandard, 0, len(raws))
	for i, raw := range raws {
		number, version := SplitVersion(raw)
		extracted = append(extracted, ExtractedStandard{
			Raw:         number,
			Version:     version,
			Description: strings.Repeat("x", i%5),
		})
	}
	return extracted
}

func TestDeduplicator_Properties(t *testing.T) {
	for _, policy := range propertyPolicies {
		n := NewNormalizer(policy)
		d := NewDeduplicator(n)
		properties := gopter.NewProperties(propertyParameters())

		properties.Property(fmt.Sprintf("keys unique and complete %+v", policy), prop.ForAll(
			func(raws []string) bool {
				input := toExtracted(raws)
				output := d.Run(input)

				seen := make(map[string]bool)
				for _, std := range output {
					key := n.Key(std.Raw, std.Version)
					if seen[key] {
						return false
					}
					seen[key] = true
				}
				for _, std := range input {
					if !seen[n.Key(std.Raw, std.Version)] {
						return false
					}
				}
				return true
			},
			gen.SliceOf(genIdentifier()),
		))

		properties.TestingRun(t)
	}
}

func TestComparator_Properties(t *testing.T) {
	for _, policy := range propertyPolicies {
		n := NewNormalizer(policy)
		c := NewComparator(n)
		properties := gopter.NewProperties(propertyParameters())

		compare := func(officialRaws, extractedRaws []string) ([]OfficialStandard, []ExtractedStandard, ComparisonResult) {
			official := officialList("RE", officialRaws...)
			extracted := toExtracted(extractedRaws)
			return official, extracted, c.Run(official, extracted)
		}

		properties.Property(fmt.Sprintf("partition %+v", policy), prop.ForAll(
			func(officialRaws, extractedRaws []string) bool {
				_, _, result := compare(officialRaws, extractedRaws)

				buckets := make(map[string]map[int]bool)
				mark := func(key string, bucket int) {
					if buckets[key] == nil {
						buckets[key] = make(map[int]bool)
					}
					buckets[key][bucket] = true
				}
				for _, pair := range result.Matched {
					mark(n.Key(pair.Official.Number, pair.Official.Version), 0)
					mark(n.Key(pair.Extracted.Raw, pair.Extracted.Version), 0)
				}
				for _, o := range result.OfficialOnly {
					mark(n.Key(o.Number, o.Version), 1)
				}
				for _, e := range result.CertificateOnly {
					mark(n.Key(e.Raw, e.Version), 2)
				}

				for _, in := range buckets {
					if len(in) != 1 {
						return false
					}
				}
				return true
			},
			gen.SliceOf(genIdentifier()),
			gen.SliceOf(genIdentifier()),
		))

		properties.Property(fmt.Sprintf("coverage bounds %+v", policy), prop.ForAll(
			func(officialRaws, extractedRaws []string) bool {
				_, _, result := compare(officialRaws, extractedRaws)
				if result.Coverage < 0.0 || result.Coverage > 100.0 {
					return false
				}
				if len(officialRaws) == 0 && len(extractedRaws) == 0 {
					return result.Coverage == 0.0
				}
				return true
			},
			gen.SliceOf(genIdentifier()),
			gen.SliceOf(genIdentifier()),
		))

		properties.Property(fmt.Sprintf("identical sides give full coverage %+v", policy), prop.ForAll(
			func(raws []string) bool {
				_, _, result := compare(raws, raws)
				return result.Coverage == 100.0 &&
					len(result.OfficialOnly) == 0 &&
					len(result.CertificateOnly) == 0
			},
			gen.SliceOfN(3, genIdentifier()),
		))

		properties.Property(fmt.Sprintf("pairs per key %+v", policy), prop.ForAll(
			func(officialRaws, extractedRaws []string) bool {
				official, extracted, result := compare(officialRaws, extractedRaws)

				officialCount := make(map[string]int)
				for _, o := range official {
					officialCount[n.Key(o.Number, o.Version)]++
				}
				extractedCount := make(map[string]int)
				for _, e := range extracted {
					extractedCount[n.Key(e.Raw, e.Version)]++
				}

				want := 0
				for key, o := range officialCount {
					if e, ok := extractedCount[key]; ok {
						want += o + e - 1
					}
				}
				return len(result.Matched) == want
			},
			gen.SliceOf(genIdentifier()),
			gen.SliceOf(genIdentifier()),
		))

		properties.TestingRun(t)
	}
}
