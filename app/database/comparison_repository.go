package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lysyi3m/standards-comb/app/standards"
)

type SQLComparisonRepository struct {
	db *DB
}

func NewComparisonRepository(db *DB) *SQLComparisonRepository {
	return &SQLComparisonRepository{db: db}
}

// SaveComparison stores result and returns the new record ID.
func (r *SQLComparisonRepository) SaveComparison(directive, source string, result standards.ComparisonResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to encode comparison: %w", err)
	}

	comparedAt := result.ComparedAt
	if comparedAt.IsZero() {
		comparedAt = time.Now()
	}

	summary := result.Summary()
	id := uuid.NewString()

	_, err = r.db.Exec(`
		INSERT INTO comparisons (
			id, directive, source, coverage, matched,
			official_only, certificate_only, result, compared_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, directive, source, summary.Coverage, summary.Matched,
		summary.OfficialOnly, summary.CertificateOnly, payload, comparedAt.UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to save comparison: %w", err)
	}

	return id, nil
}

func (r *SQLComparisonRepository) GetComparison(id string) (*Comparison, error) {
	var c Comparison
	var payload []byte
	var comparedAt int64

	err := r.db.QueryRow(`
		SELECT id, directive, source, coverage, matched,
			official_only, certificate_only, result, compared_at
		FROM comparisons
		WHERE id = ?
	`, id).Scan(&c.ID, &c.Directive, &c.Source, &c.Coverage, &c.Matched,
		&c.OfficialOnly, &c.CertificateOnly, &payload, &comparedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: comparison %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}

	var result standards.ComparisonResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to decode comparison %s: %w", id, err)
	}

	c.ComparedAt = time.Unix(0, comparedAt).UTC()
	c.Result = &result
	return &c, nil
}

// GetComparisons lists comparisons newest first. An empty directive lists
// all of them; limit <= 0 means no limit.
func (r *SQLComparisonRepository) GetComparisons(directive string, limit int) ([]Comparison, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(`
		SELECT id, directive, source, coverage, matched,
			official_only, certificate_only, compared_at
		FROM comparisons
		WHERE ? = '' OR directive = ?
		ORDER BY compared_at DESC, id
		LIMIT ?
	`, directive, directive, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list comparisons: %w", err)
	}
	defer rows.Close()

	comparisons := make([]Comparison, 0)
	for rows.Next() {
		var c Comparison
		var comparedAt int64
		if err := rows.Scan(&c.ID, &c.Directive, &c.Source, &c.Coverage, &c.Matched,
			&c.OfficialOnly, &c.CertificateOnly, &comparedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comparison: %w", err)
		}
		c.ComparedAt = time.Unix(0, comparedAt).UTC()
		comparisons = append(comparisons, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comparisons: %w", err)
	}

	return comparisons, nil
}

func (r *SQLComparisonRepository) GetComparisonCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM comparisons`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count comparisons: %w", err)
	}
	return count, nil
}
