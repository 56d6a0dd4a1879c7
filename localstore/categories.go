package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linkasu/linkatype-sync/model"
)

// ListCategories returns all cached categories ordered by creation time.
func (s *Store) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, created, is_default, ai_use, updated_at
		FROM categories ORDER BY created
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var result []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return result, nil
}

// FindCategory returns the category with the given id or ErrNotFound.
func (s *Store) FindCategory(ctx context.Context, id string) (*model.Category, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, label, created, is_default, ai_use, updated_at
		FROM categories WHERE id = ?
	`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// UpsertCategory overwrites the category row by id. No field-level merge:
// the incoming record wins entirely.
func (s *Store) UpsertCategory(ctx context.Context, c model.Category) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO categories(id, label, created, is_default, ai_use, updated_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, c.ID, c.Label, c.Created, boolToInt(c.IsDefault), boolToInt(c.AIUse), nullableInt64(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert category: %w", err)
	}
	return nil
}

// DeleteCategory removes the category and cascades to its statements.
func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM statements WHERE category_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete category statements: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*model.Category, error) {
	var c model.Category
	var isDefault, aiUse int
	var updatedAt sql.NullInt64
	if err := row.Scan(&c.ID, &c.Label, &c.Created, &isDefault, &aiUse, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	c.IsDefault = isDefault != 0
	c.AIUse = aiUse != 0
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Int64
	}
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
