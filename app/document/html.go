package document

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	blockSelector   = "tr, p, li, h1, h2, h3, h4, h5, h6"
	cellSelector    = "td, th"
	cellSeparator   = " | "
	ignoredSelector = "script, style, noscript, nav, footer"
)

// HTMLText flattens an HTML page into lines of text. Table rows become one
// line with cells separated by " | "; paragraphs, list items and headings
// outside tables become one line each.
func HTMLText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(ignoredSelector).Remove()

	var lines []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		var line string
		if s.Is("tr") {
			line = rowText(s)
		} else {
			// Rows and outer list items already carry this text.
			if s.ParentsFiltered("table, li").Length() > 0 {
				return
			}
			line = collapse(s.Text())
		}
		if line != "" {
			lines = append(lines, line)
		}
	})

	if len(lines) == 0 {
		if body := collapse(doc.Find("body").Text()); body != "" {
			lines = append(lines, body)
		}
	}

	return strings.Join(lines, "\n"), nil
}

// DocumentLinks returns absolute URLs of links ending in one of exts,
// resolved against base, without duplicates and in page order.
func DocumentLinks(data []byte, base string, exts ...string) ([]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}

		path := strings.ToLower(ref.Path)
		for _, ext := range exts {
			if strings.HasSuffix(path, ext) {
				link := baseURL.ResolveReference(ref).String()
				if !seen[link] {
					seen[link] = true
					links = append(links, link)
				}
				return
			}
		}
	})

	return links, nil
}

func rowText(row *goquery.Selection) string {
	var cells []string
	row.Find(cellSelector).Each(func(_ int, cell *goquery.Selection) {
		if text := collapse(cell.Text()); text != "" {
			cells = append(cells, text)
		}
	})
	return strings.Join(cells, cellSeparator)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
