package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/standards-comb/app/cache"
)

// CacheRepository persists cache entries in sqlite. It implements cache.Store.
type CacheRepository struct {
	db *DB
}

func NewCacheRepository(db *DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get returns nil without error when key is absent.
func (r *CacheRepository) Get(key string) (*cache.Entry, error) {
	var payload []byte
	var createdAt, expiresAt int64

	err := r.db.QueryRow(`
		SELECT payload, created_at, expires_at
		FROM cache_entries
		WHERE key = ?
	`, key).Scan(&payload, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry %s: %w", key, err)
	}

	return &cache.Entry{
		Key:       key,
		Payload:   payload,
		CreatedAt: time.Unix(0, createdAt).UTC(),
		ExpiresAt: time.Unix(0, expiresAt).UTC(),
	}, nil
}

func (r *CacheRepository) Put(entry cache.Entry) error {
	_, err := r.db.Exec(`
		INSERT INTO cache_entries (key, payload, created_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			payload = excluded.payload,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`, entry.Key, entry.Payload, entry.CreatedAt.UnixNano(), entry.ExpiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store cache entry %s: %w", entry.Key, err)
	}
	return nil
}

// DeleteExpired removes entries whose expiry is before now.
func (r *CacheRepository) DeleteExpired(now time.Time) (int, error) {
	result, err := r.db.Exec(`DELETE FROM cache_entries WHERE expires_at < ?`, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted cache entries: %w", err)
	}
	return int(count), nil
}

func (r *CacheRepository) GetEntryCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}
