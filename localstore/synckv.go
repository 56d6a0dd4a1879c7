package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
)

// GetSyncValue returns the stored value for key, or an empty string if the
// key was never written.
func (s *Store) GetSyncValue(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync value %q: %w", key, err)
	}
	return value, nil
}

// SetSyncValue stores value under key, overwriting any previous value.
func (s *Store) SetSyncValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sync_kv(key, value) VALUES(?, ?)
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set sync value %q: %w", key, err)
	}
	return nil
}

// GetSyncInt64 is a typed accessor for timestamp watermarks. Missing or
// malformed values read as zero.
func (s *Store) GetSyncInt64(ctx context.Context, key string) (int64, error) {
	value, err := s.GetSyncValue(ctx, key)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// SetSyncInt64 stores a timestamp watermark under key.
func (s *Store) SetSyncInt64(ctx context.Context, key string, value int64) error {
	return s.SetSyncValue(ctx, key, strconv.FormatInt(value, 10))
}
