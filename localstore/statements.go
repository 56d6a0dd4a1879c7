package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linkasu/linkatype-sync/model"
)

// ListStatements returns all cached statements for one category ordered by
// creation time.
func (s *Store) ListStatements(ctx context.Context, categoryID string) ([]model.Statement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category_id, text, created, updated_at
		FROM statements WHERE category_id = ? ORDER BY created
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query statements: %w", err)
	}
	defer rows.Close()

	var result []model.Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating statements: %w", err)
	}
	return result, nil
}

// FindStatement returns the statement with the given id or ErrNotFound.
func (s *Store) FindStatement(ctx context.Context, id string) (*model.Statement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, category_id, text, created, updated_at
		FROM statements WHERE id = ?
	`, id)
	st, err := scanStatement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return st, err
}

// UpsertStatement overwrites the statement row by id.
func (s *Store) UpsertStatement(ctx context.Context, st model.Statement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO statements(id, category_id, text, created, updated_at)
		VALUES(?, ?, ?, ?, ?)
	`, st.ID, st.CategoryID, st.Text, st.Created, nullableInt64(st.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert statement: %w", err)
	}
	return nil
}

// DeleteStatement removes a single statement.
func (s *Store) DeleteStatement(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM statements WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete statement: %w", err)
	}
	return nil
}

func scanStatement(row rowScanner) (*model.Statement, error) {
	var st model.Statement
	var updatedAt sql.NullInt64
	if err := row.Scan(&st.ID, &st.CategoryID, &st.Text, &st.Created, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan statement: %w", err)
	}
	if updatedAt.Valid {
		st.UpdatedAt = &updatedAt.Int64
	}
	return &st, nil
}
