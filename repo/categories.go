// Package repo implements the repository layer: one repository per entity
// family, each following the same pattern for mutations (optimistic local
// write, remote call, reconcile on success or enqueue on failure) and for
// reads (remote first, stale local fallback).
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linkasu/linkatype-sync/linkaapi"
	"github.com/linkasu/linkatype-sync/localstore"
	"github.com/linkasu/linkatype-sync/model"
	"github.com/linkasu/linkatype-sync/syncer"
)

// Categories is the repository for phrase categories.
type Categories struct {
	store  *localstore.Store
	api    *linkaapi.Client
	logger *slog.Logger
}

// NewCategories creates the category repository.
func NewCategories(store *localstore.Store, api *linkaapi.Client, logger *slog.Logger) *Categories {
	if logger == nil {
		logger = slog.Default()
	}
	return &Categories{store: store, api: api, logger: logger}
}

// List fetches categories from the remote service, refreshing the local
// store on success. When the remote call fails the cached rows are returned
// instead (stale-but-available).
func (r *Categories) List(ctx context.Context) ([]model.Category, error) {
	remote, err := r.api.Categories(ctx)
	if err != nil {
		r.logger.Debug("remote category list failed, serving cache", "error", err)
		return r.store.ListCategories(ctx)
	}
	for _, c := range remote {
		if err := r.store.UpsertCategory(ctx, c); err != nil {
			return nil, err
		}
	}
	return remote, nil
}

// Create writes an optimistic category immediately and attempts the remote
// call; on failure the mutation is queued for replay and the optimistic
// record stays visible.
func (r *Categories) Create(ctx context.Context, label string, aiUse bool) (*model.Category, error) {
	now := time.Now().UnixMilli()
	local := model.Category{
		ID:      uuid.NewString(),
		Label:   label,
		Created: now,
		AIUse:   aiUse,
	}
	if err := r.store.UpsertCategory(ctx, local); err != nil {
		return nil, err
	}

	req := linkaapi.CreateCategoryRequest{ID: local.ID, Label: label, Created: now, AIUse: aiUse}
	srv, err := r.api.CreateCategory(ctx, req)
	if err != nil {
		if qerr := enqueue(ctx, r.store, localstore.EntityCategory, localstore.OpCreate, req, now); qerr != nil {
			return nil, qerr
		}
		r.logger.Info("category create queued offline", "id", local.ID, "error", err)
		return &local, nil
	}
	if err := r.store.UpsertCategory(ctx, *srv); err != nil {
		return nil, err
	}
	return srv, nil
}

// Update patches label and/or aiUse. Nil fields are preserved.
func (r *Categories) Update(ctx context.Context, id string, label *string, aiUse *bool) (*model.Category, error) {
	local, err := r.store.FindCategory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", id, err)
	}

	now := time.Now().UnixMilli()
	updated := *local
	if label != nil {
		updated.Label = *label
	}
	if aiUse != nil {
		updated.AIUse = *aiUse
	}
	updated.UpdatedAt = &now
	if err := r.store.UpsertCategory(ctx, updated); err != nil {
		return nil, err
	}

	srv, err := r.api.UpdateCategory(ctx, id, linkaapi.UpdateCategoryRequest{Label: label, AIUse: aiUse})
	if err != nil {
		payload := syncer.CategoryUpdatePayload{ID: id, Label: label, AIUse: aiUse}
		if qerr := enqueue(ctx, r.store, localstore.EntityCategory, localstore.OpUpdate, payload, now); qerr != nil {
			return nil, qerr
		}
		r.logger.Info("category update queued offline", "id", id, "error", err)
		return &updated, nil
	}
	if err := r.store.UpsertCategory(ctx, *srv); err != nil {
		return nil, err
	}
	return srv, nil
}

// Delete removes the category locally (cascading to its statements) and
// queues the remote delete if it cannot be delivered.
func (r *Categories) Delete(ctx context.Context, id string) error {
	if err := r.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	if err := r.api.DeleteCategory(ctx, id); err != nil {
		now := time.Now().UnixMilli()
		if qerr := enqueue(ctx, r.store, localstore.EntityCategory, localstore.OpDelete, syncer.DeletePayload{ID: id}, now); qerr != nil {
			return qerr
		}
		r.logger.Info("category delete queued offline", "id", id, "error", err)
	}
	return nil
}

// enqueue serializes payload and appends it to the offline queue.
func enqueue(ctx context.Context, store *localstore.Store, entityType, opType string, payload any, createdAt int64) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode queue payload: %w", err)
	}
	if _, err := store.EnqueueOffline(ctx, entityType, opType, data, createdAt); err != nil {
		return err
	}
	return nil
}
