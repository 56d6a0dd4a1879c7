package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linkasu/linkatype-sync/linkaapi"
	"github.com/linkasu/linkatype-sync/localstore"
	"github.com/linkasu/linkatype-sync/model"
)

// Syncer polls the remote change feed and merges remote-authored changes
// into the local store. Row entities merge last-write-wins on
// updatedAt-or-created; singleton entities use per-type watermarks kept in
// the sync key-value table.
//
// The cursor is only persisted after the whole batch applied, so a failed or
// cancelled poll re-fetches the same window; the merge rule makes
// re-application idempotent.
type Syncer struct {
	store  *localstore.Store
	api    *linkaapi.Client
	logger *slog.Logger
}

// Config tunes the background poll loop.
type Config struct {
	Limit          int           // changes per poll, e.g. 100
	TimeoutSeconds int           // server-side long-poll timeout
	BackoffMin     time.Duration // first retry delay after a failed poll
	BackoffMax     time.Duration // backoff ceiling
}

// DefaultConfig returns the poll loop defaults.
func DefaultConfig() Config {
	return Config{
		Limit:          100,
		TimeoutSeconds: 25,
		BackoffMin:     1 * time.Second,
		BackoffMax:     60 * time.Second,
	}
}

// NewSyncer creates a change syncer over the given store and client.
func NewSyncer(store *localstore.Store, api *linkaapi.Client, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{store: store, api: api, logger: logger}
}

// PollOnce performs one long-poll against the change feed and applies the
// returned batch. It returns the number of changes applied. A non-blank
// cursor is persisted even for an empty batch (idle long-poll).
func (s *Syncer) PollOnce(ctx context.Context, limit, timeoutSeconds int) (applied int, err error) {
	cursor, err := s.store.GetSyncValue(ctx, localstore.KeyCursor)
	if err != nil {
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}

	resp, err := s.api.Changes(ctx, cursor, limit, timeoutSeconds)
	if err != nil {
		return 0, fmt.Errorf("failed to poll changes: %w", err)
	}

	for i := range resp.Changes {
		if err := ctx.Err(); err != nil {
			return applied, err
		}
		if err := s.applyChange(ctx, &resp.Changes[i]); err != nil {
			return applied, fmt.Errorf("failed to apply change %s/%s: %w",
				resp.Changes[i].EntityType, resp.Changes[i].EntityID, err)
		}
		applied++
	}

	// Cursor advances only after the whole batch applied, and even when the
	// batch was empty.
	if resp.Cursor != "" {
		if err := s.store.SetSyncValue(ctx, localstore.KeyCursor, resp.Cursor); err != nil {
			return applied, fmt.Errorf("failed to persist cursor: %w", err)
		}
	}
	return applied, nil
}

// Run loops PollOnce until ctx is cancelled, backing off exponentially after
// failures and resetting on success.
func (s *Syncer) Run(ctx context.Context, cfg Config) error {
	backoff := cfg.BackoffMin
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		applied, err := s.PollOnce(ctx, cfg.Limit, cfg.TimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("change poll failed", "error", err, "backoff", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff *= 2
			if backoff > cfg.BackoffMax {
				backoff = cfg.BackoffMax
			}
			continue
		}

		backoff = cfg.BackoffMin
		if applied > 0 {
			s.logger.Debug("applied remote changes", "count", applied)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (s *Syncer) applyChange(ctx context.Context, change *linkaapi.Change) error {
	switch change.EntityType {
	case localstore.EntityCategory:
		return s.applyCategory(ctx, change)
	case localstore.EntityStatement:
		return s.applyStatement(ctx, change)
	case localstore.EntityState:
		return s.applyState(ctx, change)
	case localstore.EntityQuickes:
		return s.applyQuickes(ctx, change)
	default:
		s.logger.Warn("skipping change with unknown entity type",
			"entity", change.EntityType, "id", change.EntityID)
		return nil
	}
}

func (s *Syncer) applyCategory(ctx context.Context, change *linkaapi.Change) error {
	if change.Op == localstore.OpDelete {
		local, err := s.store.FindCategory(ctx, deleteTarget(change))
		if err != nil && !errors.Is(err, localstore.ErrNotFound) {
			return err
		}
		// Remote delete wins ties: drop unless the local row is strictly newer.
		if local != nil && local.SyncTimestamp() > change.UpdatedAt {
			return nil
		}
		return s.store.DeleteCategory(ctx, deleteTarget(change))
	}

	var incoming model.Category
	if err := json.Unmarshal(change.Payload, &incoming); err != nil {
		return fmt.Errorf("failed to decode category payload: %w", err)
	}
	local, err := s.store.FindCategory(ctx, incoming.ID)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		return err
	}
	// Last-write-wins, ties favor the incoming remote value.
	if local != nil && incoming.SyncTimestamp() < local.SyncTimestamp() {
		return nil
	}
	return s.store.UpsertCategory(ctx, incoming)
}

func (s *Syncer) applyStatement(ctx context.Context, change *linkaapi.Change) error {
	if change.Op == localstore.OpDelete {
		local, err := s.store.FindStatement(ctx, deleteTarget(change))
		if err != nil && !errors.Is(err, localstore.ErrNotFound) {
			return err
		}
		if local != nil && local.SyncTimestamp() > change.UpdatedAt {
			return nil
		}
		return s.store.DeleteStatement(ctx, deleteTarget(change))
	}

	var incoming model.Statement
	if err := json.Unmarshal(change.Payload, &incoming); err != nil {
		return fmt.Errorf("failed to decode statement payload: %w", err)
	}
	local, err := s.store.FindStatement(ctx, incoming.ID)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		return err
	}
	if local != nil && incoming.SyncTimestamp() < local.SyncTimestamp() {
		return nil
	}
	return s.store.UpsertStatement(ctx, incoming)
}

// applyState applies a full user-state change guarded by the state
// watermark; the singleton has no per-row timestamp to compare against.
func (s *Syncer) applyState(ctx context.Context, change *linkaapi.Change) error {
	watermark, err := s.store.GetSyncInt64(ctx, localstore.KeyStateWatermark)
	if err != nil {
		return err
	}
	if change.UpdatedAt < watermark {
		return nil
	}

	var incoming model.UserState
	if err := json.Unmarshal(change.Payload, &incoming); err != nil {
		return fmt.Errorf("failed to decode state payload: %w", err)
	}
	incoming.Quickes = model.NormalizeQuickes(incoming.Quickes)
	if err := s.store.SetUserState(ctx, incoming); err != nil {
		return err
	}
	return s.store.SetSyncInt64(ctx, localstore.KeyStateWatermark, change.UpdatedAt)
}

// applyQuickes applies a quick-slots-only change guarded by its own
// watermark. The rest of the state record is preserved.
func (s *Syncer) applyQuickes(ctx context.Context, change *linkaapi.Change) error {
	watermark, err := s.store.GetSyncInt64(ctx, localstore.KeyQuickesWatermark)
	if err != nil {
		return err
	}
	if change.UpdatedAt < watermark {
		return nil
	}

	var quickes []string
	if err := json.Unmarshal(change.Payload, &quickes); err != nil {
		return fmt.Errorf("failed to decode quickes payload: %w", err)
	}

	state, err := s.store.GetUserState(ctx)
	if errors.Is(err, localstore.ErrNotFound) {
		state = &model.UserState{}
	} else if err != nil {
		return err
	}
	state.Quickes = model.NormalizeQuickes(quickes)
	if err := s.store.SetUserState(ctx, *state); err != nil {
		return err
	}
	return s.store.SetSyncInt64(ctx, localstore.KeyQuickesWatermark, change.UpdatedAt)
}

// deleteTarget extracts the id to delete from the change payload, falling
// back to the change's entity id.
func deleteTarget(change *linkaapi.Change) string {
	if len(change.Payload) > 0 {
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(change.Payload, &payload); err == nil && payload.ID != "" {
			return payload.ID
		}
	}
	return change.EntityID
}
