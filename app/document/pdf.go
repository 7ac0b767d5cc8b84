package document

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned for PDFs without a text layer, such as scans.
var ErrNoText = errors.New("PDF has no extractable text")

// PDFFile extracts the plain text of every page of the PDF at path.
func PDFFile(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer file.Close()

	return pdfText(reader)
}

// PDFText extracts the plain text of every page of an in-memory PDF.
func PDFText(data []byte) (text string, err error) {
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to read PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	return pdfText(reader)
}

func pdfText(reader *pdf.Reader) (string, error) {
	var pages []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("Failed to extract page text", "page", pageNum, "error", err)
			continue
		}
		pages = append(pages, content)
	}

	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}

	slog.Debug("PDF text extracted", "pages", reader.NumPage(), "length", len(text))
	return text, nil
}
