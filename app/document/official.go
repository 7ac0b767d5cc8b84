package document

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/standards-comb/app/standards"
)

// OfficialParser turns published harmonised-standard lists into
// OfficialStandards. It reads HTML tables when the page has them and falls
// back to pattern extraction over plain text.
type OfficialParser struct {
	extractor *standards.Extractor
	dedup     *standards.Deduplicator
}

func NewOfficialParser(extractor *standards.Extractor, dedup *standards.Deduplicator) *OfficialParser {
	return &OfficialParser{
		extractor: extractor,
		dedup:     dedup,
	}
}

type tableColumns struct {
	number, title, version, superseded, published int
}

func (c tableColumns) valid() bool {
	return c.number >= 0
}

// Run parses an HTML page listing standards for directive.
func (p *OfficialParser) Run(data []byte, directive string) ([]standards.OfficialStandard, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []standards.OfficialStandard
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		results = append(results, p.table(table, directive)...)
	})

	if len(results) > 0 {
		return Unique(results), nil
	}

	text, err := HTMLText(data)
	if err != nil {
		return nil, err
	}
	return p.FromText(text, directive), nil
}

// FromText extracts standards from unstructured text, such as a PDF of the
// implementing decision. The rest of each line becomes the title.
func (p *OfficialParser) FromText(text, directive string) []standards.OfficialStandard {
	extracted := p.dedup.Run(p.extractor.Run(standards.Document{Text: text, Source: directive}))

	results := make([]standards.OfficialStandard, 0, len(extracted))
	for _, e := range extracted {
		results = append(results, standards.NewOfficialStandard(e.Raw, e.Version, directive, e.Description))
	}
	return Unique(results)
}

func (p *OfficialParser) table(table *goquery.Selection, directive string) []standards.OfficialStandard {
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil
	}

	columns := headerColumns(rows.First())
	if !columns.valid() {
		return nil
	}

	var results []standards.OfficialStandard
	rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		cell := func(i int) string {
			if i < 0 || i >= cells.Length() {
				return ""
			}
			return collapse(cells.Eq(i).Text())
		}

		found := p.extractor.Run(standards.Document{Text: cell(columns.number)})
		if len(found) == 0 {
			return
		}
		first := found[0]

		version := first.Version
		if v := cell(columns.version); version == "" && v != "" {
			version = v
		}

		title := cell(columns.title)
		if title == "" || columns.title == columns.number {
			title = first.Description
		}

		std := standards.NewOfficialStandard(first.Raw, version, directive, title)
		std.PublishedOn = cell(columns.published)

		if superseded := p.extractor.Run(standards.Document{Text: cell(columns.superseded)}); len(superseded) > 0 {
			std.Supersedes = standards.Canonical(strings.TrimSpace(superseded[0].Raw + " " + superseded[0].Version))
		}

		results = append(results, std)
	})

	return results
}

func headerColumns(header *goquery.Selection) tableColumns {
	columns := tableColumns{number: -1, title: -1, version: -1, superseded: -1, published: -1}

	header.Find("td, th").Each(func(i int, cell *goquery.Selection) {
		label := strings.ToLower(collapse(cell.Text()))
		hasReference := strings.Contains(label, "reference") || strings.Contains(label, "number")
		hasTitle := strings.Contains(label, "title") || strings.Contains(label, "description")

		switch {
		case strings.Contains(label, "superseded"):
			if columns.superseded < 0 {
				columns.superseded = i
			}
		case hasReference:
			if columns.number < 0 {
				columns.number = i
			}
			if hasTitle && columns.title < 0 {
				columns.title = i
			}
		case hasTitle:
			if columns.title < 0 || columns.title == columns.number {
				columns.title = i
			}
		case strings.Contains(label, "standard"):
			if columns.number < 0 {
				columns.number = i
			}
		case strings.Contains(label, "version"):
			columns.version = i
		case strings.Contains(label, "publication"), strings.Contains(label, "published"):
			columns.published = i
		}
	})

	return columns
}

// Unique drops exact repeats of number and version, keeping the first.
func Unique(list []standards.OfficialStandard) []standards.OfficialStandard {
	seen := make(map[string]bool, len(list))
	results := make([]standards.OfficialStandard, 0, len(list))
	for _, std := range list {
		key := std.Number + "|" + std.Version
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, std)
	}
	return results
}
