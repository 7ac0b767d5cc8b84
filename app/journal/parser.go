package journal

import (
	"bytes"
	"cmp"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/standards-comb/app/config"
	"github.com/lysyi3m/standards-comb/app/document"
	"github.com/lysyi3m/standards-comb/app/standards"
)

// AmendmentLayout is the date format of directive amendment entries.
const AmendmentLayout = "2006/01/02"

var actNumber = regexp.MustCompile(`\b\d{4}/\d+(?:/EU)?\b`)

type Parser struct {
	gofeedParser *gofeed.Parser
	extractor    *standards.Extractor
	dedup        *standards.Deduplicator
}

func NewParser(extractor *standards.Extractor, dedup *standards.Deduplicator) *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		extractor:    extractor,
		dedup:        dedup,
	}
}

// Run parses an RSS or Atom feed and returns the entries that mention the
// directive or its implementing decision, newest first as in the feed.
func (p *Parser) Run(data []byte, directive *config.Directive) ([]Notice, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	terms := Terms(directive)
	known := amendmentDates(directive.Amendments)

	notices := make([]Notice, 0)
	for _, item := range feed.Items {
		text := itemText(item)
		if !mentions(text, terms) {
			continue
		}

		notice := Notice{
			GUID:      cmp.Or(item.GUID, item.Link),
			Directive: directive.Code,
			Title:     strings.TrimSpace(item.Title),
			Link:      item.Link,
			Summary:   plainText(item.Description),
			Standards: p.Standards(text),
		}

		if item.PublishedParsed != nil {
			notice.PublishedAt = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			notice.PublishedAt = item.UpdatedParsed.UTC()
		}
		notice.Known = known[notice.PublishedAt.Format(AmendmentLayout)]

		notices = append(notices, notice)
	}

	return notices, nil
}

// Terms returns the act numbers a notice must mention to concern directive,
// such as "2014/53/EU" and "2022/2191".
func Terms(directive *config.Directive) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, source := range []string{directive.Directive, directive.Decision} {
		for _, term := range actNumber.FindAllString(source, -1) {
			if !seen[term] {
				seen[term] = true
				terms = append(terms, term)
			}
		}
	}
	return terms
}

// Standards returns the canonical identifiers of the standards in text.
func (p *Parser) Standards(text string) []string {
	found := p.dedup.Run(p.extractor.Run(standards.Document{Text: text}))

	ids := make([]string, 0, len(found))
	for _, std := range found {
		ids = append(ids, standards.Canonical(strings.TrimSpace(std.Raw+" "+std.Version)))
	}
	return ids
}

func mentions(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func itemText(item *gofeed.Item) string {
	parts := []string{item.Title, plainText(item.Description), plainText(item.Content)}
	return strings.Join(parts, "\n")
}

func plainText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment)
	}
	text, err := document.HTMLText([]byte(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return text
}

func amendmentDates(amendments []string) map[string]bool {
	dates := make(map[string]bool, len(amendments))
	for _, a := range amendments {
		if t, err := time.Parse(AmendmentLayout, strings.TrimSpace(a)); err == nil {
			dates[t.Format(AmendmentLayout)] = true
		}
	}
	return dates
}
