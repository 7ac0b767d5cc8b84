package checker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lysyi3m/standards-comb/app/document"
)

func fileText(path string) (string, error) {
	if isPDF(path) {
		return document.PDFFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read certificate %s: %w", path, err)
	}
	return bytesText(path, data)
}

func bytesText(name string, data []byte) (string, error) {
	switch {
	case isPDF(name):
		return document.PDFText(data)
	case isHTML(name):
		return document.HTMLText(data)
	default:
		return string(data), nil
	}
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func isHTML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}
