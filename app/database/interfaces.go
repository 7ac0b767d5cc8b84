package database

import (
	"errors"

	"github.com/lysyi3m/standards-comb/app/standards"
)

var ErrNotFound = errors.New("record not found")

type ComparisonRepository interface {
	SaveComparison(directive, source string, result standards.ComparisonResult) (string, error)
	GetComparison(id string) (*Comparison, error)
	GetComparisons(directive string, limit int) ([]Comparison, error)
	GetComparisonCount() (int, error)
}
