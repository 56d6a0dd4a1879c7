package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linkasu/linkatype-sync/linkaapi"
	"github.com/linkasu/linkatype-sync/localstore"
	"github.com/linkasu/linkatype-sync/model"
	"github.com/linkasu/linkatype-sync/syncer"
)

// Statements is the repository for phrases.
type Statements struct {
	store  *localstore.Store
	api    *linkaapi.Client
	logger *slog.Logger
}

// NewStatements creates the statement repository.
func NewStatements(store *localstore.Store, api *linkaapi.Client, logger *slog.Logger) *Statements {
	if logger == nil {
		logger = slog.Default()
	}
	return &Statements{store: store, api: api, logger: logger}
}

// ListByCategory fetches one category's statements from the remote service,
// refreshing the cache on success and falling back to it on failure.
func (r *Statements) ListByCategory(ctx context.Context, categoryID string) ([]model.Statement, error) {
	remote, err := r.api.Statements(ctx, categoryID)
	if err != nil {
		r.logger.Debug("remote statement list failed, serving cache",
			"category", categoryID, "error", err)
		return r.store.ListStatements(ctx, categoryID)
	}
	for _, st := range remote {
		if err := r.store.UpsertStatement(ctx, st); err != nil {
			return nil, err
		}
	}
	return remote, nil
}

// Create writes an optimistic statement immediately; a failed remote call
// queues the mutation and keeps the optimistic record visible.
func (r *Statements) Create(ctx context.Context, categoryID, text string) (*model.Statement, error) {
	now := time.Now().UnixMilli()
	local := model.Statement{
		ID:         uuid.NewString(),
		CategoryID: categoryID,
		Text:       text,
		Created:    now,
	}
	if err := r.store.UpsertStatement(ctx, local); err != nil {
		return nil, err
	}

	req := linkaapi.CreateStatementRequest{ID: local.ID, CategoryID: categoryID, Text: text, Created: now}
	srv, err := r.api.CreateStatement(ctx, req)
	if err != nil {
		if qerr := enqueue(ctx, r.store, localstore.EntityStatement, localstore.OpCreate, req, now); qerr != nil {
			return nil, qerr
		}
		r.logger.Info("statement create queued offline", "id", local.ID, "error", err)
		return &local, nil
	}
	if err := r.store.UpsertStatement(ctx, *srv); err != nil {
		return nil, err
	}
	return srv, nil
}

// Update rewrites a statement's text.
func (r *Statements) Update(ctx context.Context, id, text string) (*model.Statement, error) {
	local, err := r.store.FindStatement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("statement %s: %w", id, err)
	}

	now := time.Now().UnixMilli()
	updated := *local
	updated.Text = text
	updated.UpdatedAt = &now
	if err := r.store.UpsertStatement(ctx, updated); err != nil {
		return nil, err
	}

	srv, err := r.api.UpdateStatement(ctx, id, linkaapi.UpdateStatementRequest{Text: text})
	if err != nil {
		payload := syncer.StatementUpdatePayload{ID: id, Text: text}
		if qerr := enqueue(ctx, r.store, localstore.EntityStatement, localstore.OpUpdate, payload, now); qerr != nil {
			return nil, qerr
		}
		r.logger.Info("statement update queued offline", "id", id, "error", err)
		return &updated, nil
	}
	if err := r.store.UpsertStatement(ctx, *srv); err != nil {
		return nil, err
	}
	return srv, nil
}

// Delete removes the statement locally and queues the remote delete when it
// cannot be delivered.
func (r *Statements) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteStatement(ctx, id); err != nil {
		return err
	}
	if err := r.api.DeleteStatement(ctx, id); err != nil {
		now := time.Now().UnixMilli()
		if qerr := enqueue(ctx, r.store, localstore.EntityStatement, localstore.OpDelete, syncer.DeletePayload{ID: id}, now); qerr != nil {
			return qerr
		}
		r.logger.Info("statement delete queued offline", "id", id, "error", err)
	}
	return nil
}
