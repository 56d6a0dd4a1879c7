package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/linkasu/linkatype-sync/linkaapi"
	"github.com/linkasu/linkatype-sync/localstore"
	"github.com/linkasu/linkatype-sync/model"
)

// Processor drains the offline queue against the remote service. A mutation
// that still cannot be replayed keeps its queue entry with an incremented
// retry count; there is no backoff schedule and no retry cap, repeated Flush
// invocations are the only throttle.
type Processor struct {
	store  *localstore.Store
	api    *linkaapi.Client
	logger *slog.Logger

	flushMu sync.Mutex // at most one flush in flight
}

// NewProcessor creates a queue processor over the given store and client.
func NewProcessor(store *localstore.Store, api *linkaapi.Client, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, api: api, logger: logger}
}

// Pending returns the current queue snapshot, oldest first.
func (p *Processor) Pending(ctx context.Context) ([]localstore.OfflineQueueEntry, error) {
	return p.store.ListOfflineQueue(ctx)
}

// Flush replays every queued mutation in store order. One entry's failure
// never blocks later entries: failed entries stay queued with retry_count
// incremented and last_error recorded. A second concurrent Flush waits for
// the in-flight one to finish before running.
func (p *Processor) Flush(ctx context.Context) error {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	entries, err := p.store.ListOfflineQueue(ctx)
	if err != nil {
		return fmt.Errorf("failed to read offline queue: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := p.replay(ctx, entry); err != nil {
			p.logger.Warn("offline replay failed, entry retained",
				"id", entry.ID, "entity", entry.EntityType, "op", entry.OpType,
				"retries", entry.RetryCount+1, "error", err)
			if uerr := p.store.UpdateOfflineRetry(ctx, entry.ID, entry.RetryCount+1, err.Error()); uerr != nil {
				return fmt.Errorf("failed to record replay failure: %w", uerr)
			}
			continue
		}

		if err := p.store.DeleteOfflineEntry(ctx, entry.ID); err != nil {
			return fmt.Errorf("failed to remove replayed entry: %w", err)
		}
		p.logger.Debug("offline entry replayed",
			"id", entry.ID, "entity", entry.EntityType, "op", entry.OpType)
	}
	return nil
}

// Run ticks Flush at the given interval until ctx is cancelled. Callers that
// react to connectivity events can ignore Run and invoke Flush directly.
func (p *Processor) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Flush(ctx); err != nil && ctx.Err() == nil {
				p.logger.Warn("flush pass failed", "error", err)
			}
		}
	}
}

// replay reconstructs the original remote call from the queued payload and,
// on success, reconciles the local store with the server-canonical record.
func (p *Processor) replay(ctx context.Context, entry localstore.OfflineQueueEntry) error {
	switch entry.EntityType {
	case localstore.EntityCategory:
		return p.replayCategory(ctx, entry)
	case localstore.EntityStatement:
		return p.replayStatement(ctx, entry)
	case localstore.EntityState:
		return p.replayState(ctx, entry)
	case localstore.EntityDialogChat:
		return p.replayChat(ctx, entry)
	case localstore.EntityDialogMessage:
		return p.replayMessage(ctx, entry)
	default:
		return fmt.Errorf("unknown entity type %q", entry.EntityType)
	}
}

func (p *Processor) replayCategory(ctx context.Context, entry localstore.OfflineQueueEntry) error {
	switch entry.OpType {
	case localstore.OpCreate:
		var req linkaapi.CreateCategoryRequest
		if err := json.Unmarshal(entry.Payload, &req); err != nil {
			return fmt.Errorf("failed to decode category create payload: %w", err)
		}
		srv, err := p.api.CreateCategory(ctx, req)
		if err != nil {
			return err
		}
		return p.store.UpsertCategory(ctx, *srv)

	case localstore.OpUpdate:
		var payload CategoryUpdatePayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode category update payload: %w", err)
		}
		srv, err := p.api.UpdateCategory(ctx, payload.ID, linkaapi.UpdateCategoryRequest{
			Label: payload.Label,
			AIUse: payload.AIUse,
		})
		if err != nil {
			return err
		}
		return p.store.UpsertCategory(ctx, *srv)

	case localstore.OpDelete:
		var payload DeletePayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode category delete payload: %w", err)
		}
		return p.api.DeleteCategory(ctx, payload.ID)

	default:
		return fmt.Errorf("unknown category op %q", entry.OpType)
	}
}

func (p *Processor) replayStatement(ctx context.Context, entry localstore.OfflineQueueEntry) error {
	switch entry.OpType {
	case localstore.OpCreate:
		var req linkaapi.CreateStatementRequest
		if err := json.Unmarshal(entry.Payload, &req); err != nil {
			return fmt.Errorf("failed to decode statement create payload: %w", err)
		}
		srv, err := p.api.CreateStatement(ctx, req)
		if err != nil {
			return err
		}
		return p.store.UpsertStatement(ctx, *srv)

	case localstore.OpUpdate:
		var payload StatementUpdatePayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode statement update payload: %w", err)
		}
		srv, err := p.api.UpdateStatement(ctx, payload.ID, linkaapi.UpdateStatementRequest{Text: payload.Text})
		if err != nil {
			return err
		}
		return p.store.UpsertStatement(ctx, *srv)

	case localstore.OpDelete:
		var payload DeletePayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode statement delete payload: %w", err)
		}
		return p.api.DeleteStatement(ctx, payload.ID)

	default:
		return fmt.Errorf("unknown statement op %q", entry.OpType)
	}
}

func (p *Processor) replayState(ctx context.Context, entry localstore.OfflineQueueEntry) error {
	if entry.OpType != localstore.OpSet {
		return fmt.Errorf("unknown state op %q", entry.OpType)
	}
	var req linkaapi.PutStateRequest
	if err := json.Unmarshal(entry.Payload, &req); err != nil {
		return fmt.Errorf("failed to decode state payload: %w", err)
	}
	srv, err := p.api.PutState(ctx, req)
	if err != nil {
		return err
	}
	srv.Quickes = model.NormalizeQuickes(srv.Quickes)
	return p.store.SetUserState(ctx, *srv)
}

func (p *Processor) replayChat(ctx context.Context, entry localstore.OfflineQueueEntry) error {
	switch entry.OpType {
	case localstore.OpCreate:
		var payload ChatCreatePayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode chat create payload: %w", err)
		}
		srv, err := p.api.CreateChat(ctx, linkaapi.CreateChatRequest{Title: payload.Title})
		if err != nil {
			return err
		}
		if err := p.store.UpsertChat(ctx, *srv); err != nil {
			return err
		}
		if srv.ID != payload.ClientID {
			return p.store.RehomeChat(ctx, payload.ClientID, srv.ID)
		}
		return nil

	case localstore.OpDelete:
		var payload DeletePayload
		if err := json.Unmarshal(entry.Payload, &payload); err != nil {
			return fmt.Errorf("failed to decode chat delete payload: %w", err)
		}
		return p.api.DeleteChat(ctx, payload.ID)

	default:
		return fmt.Errorf("unknown chat op %q", entry.OpType)
	}
}

func (p *Processor) replayMessage(ctx context.Context, entry localstore.OfflineQueueEntry) error {
	if entry.OpType != localstore.OpCreate {
		return fmt.Errorf("unknown message op %q", entry.OpType)
	}
	var payload MessageCreatePayload
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode message payload: %w", err)
	}

	var resp *linkaapi.SendMessageResponse
	var err error
	if len(payload.Audio) > 0 {
		resp, err = p.api.SendMessageWithAudio(ctx, payload.ChatID, payload.MessageRequest(), payload.Audio, payload.AudioName)
	} else {
		resp, err = p.api.SendMessage(ctx, payload.ChatID, payload.MessageRequest())
	}
	if err != nil {
		return err
	}

	if resp.Message.ID != payload.ClientID {
		if err := p.store.DeleteMessage(ctx, payload.ClientID); err != nil {
			return err
		}
	}
	if err := p.store.UpsertMessage(ctx, resp.Message); err != nil {
		return err
	}
	if len(resp.Suggestions) > 0 {
		return p.store.ReplaceSuggestions(ctx, payload.ChatID, resp.Suggestions)
	}
	return nil
}
