package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linkasu/linkatype-sync/model"
)

// ListChats returns all cached dialog chats, newest first.
func (s *Store) ListChats(ctx context.Context) ([]model.DialogChat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created, updated_at
		FROM dialog_chats ORDER BY created DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	var result []model.DialogChat
	for rows.Next() {
		var c model.DialogChat
		var updatedAt sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Title, &c.Created, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		if updatedAt.Valid {
			c.UpdatedAt = &updatedAt.Int64
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chats: %w", err)
	}
	return result, nil
}

// FindChat returns the chat with the given id or ErrNotFound.
func (s *Store) FindChat(ctx context.Context, id string) (*model.DialogChat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, created, updated_at FROM dialog_chats WHERE id = ?
	`, id)
	var c model.DialogChat
	var updatedAt sql.NullInt64
	if err := row.Scan(&c.ID, &c.Title, &c.Created, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan chat: %w", err)
	}
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Int64
	}
	return &c, nil
}

// UpsertChat overwrites the chat row by id.
func (s *Store) UpsertChat(ctx context.Context, c model.DialogChat) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO dialog_chats(id, title, created, updated_at)
		VALUES(?, ?, ?, ?)
	`, c.ID, c.Title, c.Created, nullableInt64(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert chat: %w", err)
	}
	return nil
}

// DeleteChat removes the chat and clears its messages and suggestions.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM dialog_messages WHERE chat_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete chat messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM dialog_suggestions WHERE chat_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete chat suggestions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM dialog_chats WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete chat: %w", err)
		}
		return nil
	})
}

// RehomeChat moves messages and suggestions from oldID to newID and drops
// the old chat row. Used when the server assigns a different id to an
// optimistically created chat.
func (s *Store) RehomeChat(ctx context.Context, oldID, newID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE dialog_messages SET chat_id = ? WHERE chat_id = ?`, newID, oldID); err != nil {
			return fmt.Errorf("failed to rehome chat messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE dialog_suggestions SET chat_id = ? WHERE chat_id = ?`, newID, oldID); err != nil {
			return fmt.Errorf("failed to rehome chat suggestions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM dialog_chats WHERE id = ?`, oldID); err != nil {
			return fmt.Errorf("failed to delete replaced chat: %w", err)
		}
		return nil
	})
}

// ListMessages returns all cached messages for a chat ordered by creation
// time.
func (s *Store) ListMessages(ctx context.Context, chatID string) ([]model.DialogMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, role, content, source, created
		FROM dialog_messages WHERE chat_id = ? ORDER BY created
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var result []model.DialogMessage
	for rows.Next() {
		var m model.DialogMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.Source, &m.Created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return result, nil
}

// UpsertMessage overwrites the message row by id.
func (s *Store) UpsertMessage(ctx context.Context, m model.DialogMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO dialog_messages(id, chat_id, role, content, source, created)
		VALUES(?, ?, ?, ?, ?, ?)
	`, m.ID, m.ChatID, m.Role, m.Content, m.Source, m.Created)
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}
	return nil
}

// DeleteMessage removes a single message.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM dialog_messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// ListSuggestions returns all cached suggestions for a chat.
func (s *Store) ListSuggestions(ctx context.Context, chatID string) ([]model.DialogSuggestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, text, created
		FROM dialog_suggestions WHERE chat_id = ? ORDER BY created
	`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	var result []model.DialogSuggestion
	for rows.Next() {
		var sg model.DialogSuggestion
		if err := rows.Scan(&sg.ID, &sg.ChatID, &sg.Text, &sg.Created); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		result = append(result, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestions: %w", err)
	}
	return result, nil
}

// ReplaceSuggestions swaps the suggestion set for a chat.
func (s *Store) ReplaceSuggestions(ctx context.Context, chatID string, suggestions []model.DialogSuggestion) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM dialog_suggestions WHERE chat_id = ?`, chatID); err != nil {
			return fmt.Errorf("failed to clear suggestions: %w", err)
		}
		for _, sg := range suggestions {
			_, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO dialog_suggestions(id, chat_id, text, created)
				VALUES(?, ?, ?, ?)
			`, sg.ID, chatID, sg.Text, sg.Created)
			if err != nil {
				return fmt.Errorf("failed to insert suggestion: %w", err)
			}
		}
		return nil
	})
}
