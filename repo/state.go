package repo

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/linkasu/linkatype-sync/linkaapi"
	"github.com/linkasu/linkatype-sync/localstore"
	"github.com/linkasu/linkatype-sync/model"
)

// State is the repository for the singleton user state. Quickes are
// normalized to exactly model.QuickSlots entries on every read and write.
type State struct {
	store  *localstore.Store
	api    *linkaapi.Client
	logger *slog.Logger
}

// StateUpdate is a partial update: nil fields keep their current value.
type StateUpdate struct {
	Inited      *bool
	Quickes     []string
	Preferences json.RawMessage
}

// NewState creates the user state repository.
func NewState(store *localstore.Store, api *linkaapi.Client, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{store: store, api: api, logger: logger}
}

// Get fetches the user state from the remote service, refreshing the cache
// on success. A failed remote call serves the cached state; if nothing was
// ever cached an empty normalized state is returned.
func (r *State) Get(ctx context.Context) (*model.UserState, error) {
	srv, err := r.api.State(ctx)
	if err != nil {
		r.logger.Debug("remote state fetch failed, serving cache", "error", err)
		local, lerr := r.store.GetUserState(ctx)
		if errors.Is(lerr, localstore.ErrNotFound) {
			return &model.UserState{Quickes: model.NormalizeQuickes(nil)}, nil
		}
		if lerr != nil {
			return nil, lerr
		}
		local.Quickes = model.NormalizeQuickes(local.Quickes)
		return local, nil
	}

	srv.Quickes = model.NormalizeQuickes(srv.Quickes)
	if err := r.store.SetUserState(ctx, *srv); err != nil {
		return nil, err
	}
	return srv, nil
}

// Update merges the partial update onto the last known state, normalizes the
// quick slots and writes optimistically before attempting the remote call.
func (r *State) Update(ctx context.Context, upd StateUpdate) (*model.UserState, error) {
	current, err := r.store.GetUserState(ctx)
	if errors.Is(err, localstore.ErrNotFound) {
		current = &model.UserState{}
	} else if err != nil {
		return nil, err
	}

	merged := *current
	if upd.Inited != nil {
		merged.Inited = *upd.Inited
	}
	if upd.Quickes != nil {
		merged.Quickes = upd.Quickes
	}
	if upd.Preferences != nil {
		merged.Preferences = upd.Preferences
	}
	merged.Quickes = model.NormalizeQuickes(merged.Quickes)

	if err := r.store.SetUserState(ctx, merged); err != nil {
		return nil, err
	}

	req := linkaapi.PutStateRequest{
		Inited:      &merged.Inited,
		Quickes:     merged.Quickes,
		Preferences: merged.Preferences,
	}
	srv, err := r.api.PutState(ctx, req)
	if err != nil {
		now := time.Now().UnixMilli()
		if qerr := enqueue(ctx, r.store, localstore.EntityState, localstore.OpSet, req, now); qerr != nil {
			return nil, qerr
		}
		r.logger.Info("state update queued offline", "error", err)
		return &merged, nil
	}

	srv.Quickes = model.NormalizeQuickes(srv.Quickes)
	if err := r.store.SetUserState(ctx, *srv); err != nil {
		return nil, err
	}
	return srv, nil
}
