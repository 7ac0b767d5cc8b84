package standards

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

type FamilyPattern struct {
	Family  Family `yaml:"family" json:"family"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

type ExtractorOptions struct {
	// ContextWidth is how many runes on each side of a match are scanned for
	// category keywords.
	ContextWidth int
	// DescriptionWidth caps the description taken from the rest of the line.
	DescriptionWidth int
}

func DefaultExtractorOptions() ExtractorOptions {
	return ExtractorOptions{
		ContextWidth:     100,
		DescriptionWidth: 100,
	}
}

// PatternError reports a family whose pattern could not be used. The family
// is skipped; the other families still run.
type PatternError struct {
	Family  Family
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("pattern for family %s (%q): %v", e.Family, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

var (
	errEmptyFamily  = errors.New("family tag is empty")
	errEmptyPattern = errors.New("pattern is empty")
)

type compiledPattern struct {
	family Family
	re     *regexp.Regexp
}

type Extractor struct {
	patterns []compiledPattern
	opts     ExtractorOptions
}

// NewExtractor compiles families case-insensitively, in the given order.
// The returned error joins one *PatternError per rejected family; the
// extractor is usable either way.
func NewExtractor(families []FamilyPattern, opts ExtractorOptions) (*Extractor, error) {
	if opts.ContextWidth <= 0 {
		opts.ContextWidth = DefaultExtractorOptions().ContextWidth
	}
	if opts.DescriptionWidth <= 0 {
		opts.DescriptionWidth = DefaultExtractorOptions().DescriptionWidth
	}

	e := &Extractor{opts: opts}
	var errs []error

	for _, fp := range families {
		switch {
		case fp.Family == "":
			errs = append(errs, &PatternError{Family: fp.Family, Pattern: fp.Pattern, Err: errEmptyFamily})
			continue
		case strings.TrimSpace(fp.Pattern) == "":
			errs = append(errs, &PatternError{Family: fp.Family, Pattern: fp.Pattern, Err: errEmptyPattern})
			continue
		}

		re, err := regexp.Compile("(?i)" + fp.Pattern)
		if err != nil {
			errs = append(errs, &PatternError{Family: fp.Family, Pattern: fp.Pattern, Err: err})
			continue
		}
		e.patterns = append(e.patterns, compiledPattern{family: fp.Family, re: re})
	}

	return e, errors.Join(errs...)
}

// Families lists the families that compiled, in extraction order.
func (e *Extractor) Families() []Family {
	families := make([]Family, 0, len(e.patterns))
	for _, p := range e.patterns {
		families = append(families, p.family)
	}
	return families
}

// Run returns every match of every family, in family order then text order.
// No match yields an empty, non-nil slice.
func (e *Extractor) Run(doc Document) []ExtractedStandard {
	results := make([]ExtractedStandard, 0)

	for _, p := range e.patterns {
		for _, loc := range p.re.FindAllStringIndex(doc.Text, -1) {
			raw := strings.TrimSpace(doc.Text[loc[0]:loc[1]])
			if raw == "" {
				continue
			}

			version, rest := versionAfter(doc.Text[loc[1]:])
			results = append(results, ExtractedStandard{
				Raw:         raw,
				Family:      p.family,
				Version:     version,
				Category:    categorize(contextWindow(doc.Text, loc[0], loc[1], e.opts.ContextWidth), p.family),
				Description: e.description(rest),
				Source:      doc.Source,
			})
		}
	}

	return results
}

var (
	trailingVersion   = regexp.MustCompile(`^[ \t]*(?:[Vv](\d+(?:\.\d+)+)\b|:[ \t]*(\d{4})\b|\((\d{4})\))`)
	leadingSeparators = regexp.MustCompile(`^[\s;,:\-\x{2013}\x{2014}|]+`)
)

// versionAfter reads a version designation directly after a match and
// returns it together with the text that follows it.
func versionAfter(tail string) (string, string) {
	m := trailingVersion.FindStringSubmatchIndex(tail)
	if m == nil {
		return "", tail
	}
	switch {
	case m[2] >= 0:
		return "V" + tail[m[2]:m[3]], tail[m[1]:]
	case m[4] >= 0:
		return tail[m[4]:m[5]], tail[m[1]:]
	default:
		return tail[m[6]:m[7]], tail[m[1]:]
	}
}

// ellipsis marks a description cut at DescriptionWidth.
const ellipsis = "..."

func (e *Extractor) description(rest string) string {
	if i := strings.IndexAny(rest, "\r\n"); i >= 0 {
		rest = rest[:i]
	}
	rest = leadingSeparators.ReplaceAllString(rest, "")
	rest = strings.Join(strings.Fields(rest), " ")

	if utf8.RuneCountInString(rest) > e.opts.DescriptionWidth {
		runes := []rune(rest)
		rest = strings.TrimSpace(string(runes[:e.opts.DescriptionWidth])) + ellipsis
	}
	return rest
}

// contextWindow returns text around [start, end) widened by width runes on
// each side.
func contextWindow(text string, start, end, width int) string {
	for i := 0; i < width && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	for i := 0; i < width && end < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[end:])
		end += size
	}
	return text[start:end]
}
