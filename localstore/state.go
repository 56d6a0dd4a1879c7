package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/linkasu/linkatype-sync/model"
)

// GetUserState returns the singleton user state row or ErrNotFound if it was
// never written.
func (s *Store) GetUserState(ctx context.Context) (*model.UserState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT inited, quickes, preferences FROM user_state WHERE id = 1
	`)
	var inited int
	var quickes, preferences string
	if err := row.Scan(&inited, &quickes, &preferences); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user state: %w", err)
	}

	state := &model.UserState{
		Inited:      inited != 0,
		Preferences: json.RawMessage(preferences),
	}
	if err := json.Unmarshal([]byte(quickes), &state.Quickes); err != nil {
		return nil, fmt.Errorf("failed to decode quickes: %w", err)
	}
	return state, nil
}

// SetUserState overwrites the singleton user state row.
func (s *Store) SetUserState(ctx context.Context, state model.UserState) error {
	quickes, err := json.Marshal(state.Quickes)
	if err != nil {
		return fmt.Errorf("failed to encode quickes: %w", err)
	}
	preferences := state.Preferences
	if len(preferences) == 0 {
		preferences = json.RawMessage(`{}`)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_state(id, inited, quickes, preferences)
		VALUES(1, ?, ?, ?)
	`, boolToInt(state.Inited), string(quickes), string(preferences))
	if err != nil {
		return fmt.Errorf("failed to set user state: %w", err)
	}
	return nil
}
