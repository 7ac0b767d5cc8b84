package standards

import (
	"unicode/utf8"
)

type Deduplicator struct {
	normalizer *Normalizer
}

func NewDeduplicator(normalizer *Normalizer) *Deduplicator {
	return &Deduplicator{normalizer: normalizer}
}

// Run keeps one candidate per normalized key: the one with the longest
// description, the earliest on ties. Groups stay in first-seen order.
func (d *Deduplicator) Run(candidates []ExtractedStandard) []ExtractedStandard {
	unique := make([]ExtractedStandard, 0, len(candidates))
	index := make(map[string]int, len(candidates))

	for _, candidate := range candidates {
		key := d.normalizer.Key(candidate.Raw, candidate.Version)

		i, seen := index[key]
		if !seen {
			index[key] = len(unique)
			unique = append(unique, candidate)
			continue
		}

		if utf8.RuneCountInString(candidate.Description) > utf8.RuneCountInString(unique[i].Description) {
			unique[i] = candidate
		}
	}

	return unique
}
