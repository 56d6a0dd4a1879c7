package localstore

import (
	"context"
	"database/sql"
	"fmt"
)

// OfflineQueueEntry is a persisted mutation that could not reach the remote
// service. Entries are append-only until resolved; resolution means removal.
type OfflineQueueEntry struct {
	ID         int64
	EntityType string
	OpType     string
	Payload    []byte
	CreatedAt  int64
	RetryCount int
	LastError  *string
}

// ListOfflineQueue returns the full queue snapshot in store order, oldest
// first.
func (s *Store) ListOfflineQueue(ctx context.Context) ([]OfflineQueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, op_type, payload, created_at, retry_count, last_error
		FROM offline_queue ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query offline queue: %w", err)
	}
	defer rows.Close()

	var result []OfflineQueueEntry
	for rows.Next() {
		var e OfflineQueueEntry
		var lastError sql.NullString
		if err := rows.Scan(&e.ID, &e.EntityType, &e.OpType, &e.Payload, &e.CreatedAt, &e.RetryCount, &lastError); err != nil {
			return nil, fmt.Errorf("failed to scan offline entry: %w", err)
		}
		if lastError.Valid {
			e.LastError = &lastError.String
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offline queue: %w", err)
	}
	return result, nil
}

// EnqueueOffline appends a mutation descriptor and returns its store-assigned
// id.
func (s *Store) EnqueueOffline(ctx context.Context, entityType, opType string, payload []byte, createdAt int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO offline_queue(entity_type, op_type, payload, created_at)
		VALUES(?, ?, ?, ?)
	`, entityType, opType, payload, createdAt)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue offline entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get offline entry id: %w", err)
	}
	return id, nil
}

// UpdateOfflineRetry persists the retry count and last error of an entry
// that failed to replay. The entry stays queued.
func (s *Store) UpdateOfflineRetry(ctx context.Context, id int64, retryCount int, lastError string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE offline_queue SET retry_count = ?, last_error = ? WHERE id = ?
	`, retryCount, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to update offline retry: %w", err)
	}
	return nil
}

// DeleteOfflineEntry removes a replayed entry from the queue.
func (s *Store) DeleteOfflineEntry(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM offline_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete offline entry: %w", err)
	}
	return nil
}

// CountOfflineQueue returns the number of queued entries.
func (s *Store) CountOfflineQueue(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM offline_queue`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count offline queue: %w", err)
	}
	return count, nil
}
