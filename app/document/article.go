package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

type Article struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ArticleText pulls the main article out of a page, such as an Official
// Journal notice, dropping navigation and boilerplate.
func ArticleText(data []byte, pageURL string) (*Article, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("HTML data is empty")
	}

	var parsedURL *url.URL
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
		}
		parsedURL = u
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Article extracted", "title", article.Title, "content_length", len(text))

	return &Article{Title: article.Title, Text: text}, nil
}
