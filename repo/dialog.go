package repo

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/linkasu/linkatype-sync/linkaapi"
	"github.com/linkasu/linkatype-sync/localstore"
	"github.com/linkasu/linkatype-sync/model"
	"github.com/linkasu/linkatype-sync/syncer"
)

// Dialog is the repository for conversation chats, messages and reply
// suggestions.
type Dialog struct {
	store  *localstore.Store
	api    *linkaapi.Client
	logger *slog.Logger
}

// SendOptions controls message posting.
type SendOptions struct {
	Role               string
	Content            string
	Source             string
	IncludeSuggestions bool
	Audio              []byte // optional; triggers the multipart variant
	AudioName          string
}

// NewDialog creates the dialog repository.
func NewDialog(store *localstore.Store, api *linkaapi.Client, logger *slog.Logger) *Dialog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dialog{store: store, api: api, logger: logger}
}

// ListChats fetches chats from the remote service, refreshing the cache on
// success and falling back to it on failure.
func (r *Dialog) ListChats(ctx context.Context) ([]model.DialogChat, error) {
	remote, err := r.api.Chats(ctx)
	if err != nil {
		r.logger.Debug("remote chat list failed, serving cache", "error", err)
		return r.store.ListChats(ctx)
	}
	for _, c := range remote {
		if err := r.store.UpsertChat(ctx, c); err != nil {
			return nil, err
		}
	}
	return remote, nil
}

// CreateChat writes an optimistic chat with a client-generated id; the
// server-canonical record replaces it on success, otherwise the create is
// queued.
func (r *Dialog) CreateChat(ctx context.Context, title string) (*model.DialogChat, error) {
	now := time.Now().UnixMilli()
	local := model.DialogChat{ID: uuid.NewString(), Title: title, Created: now}
	if err := r.store.UpsertChat(ctx, local); err != nil {
		return nil, err
	}

	srv, err := r.api.CreateChat(ctx, linkaapi.CreateChatRequest{Title: title})
	if err != nil {
		payload := syncer.ChatCreatePayload{ClientID: local.ID, Title: title}
		if qerr := enqueue(ctx, r.store, localstore.EntityDialogChat, localstore.OpCreate, payload, now); qerr != nil {
			return nil, qerr
		}
		r.logger.Info("chat create queued offline", "id", local.ID, "error", err)
		return &local, nil
	}

	if err := r.store.UpsertChat(ctx, *srv); err != nil {
		return nil, err
	}
	if srv.ID != local.ID {
		if err := r.store.RehomeChat(ctx, local.ID, srv.ID); err != nil {
			return nil, err
		}
	}
	return srv, nil
}

// DeleteChat removes the chat and its messages locally, queuing the remote
// delete when it cannot be delivered.
func (r *Dialog) DeleteChat(ctx context.Context, id string) error {
	if err := r.store.DeleteChat(ctx, id); err != nil {
		return err
	}
	if err := r.api.DeleteChat(ctx, id); err != nil {
		now := time.Now().UnixMilli()
		if qerr := enqueue(ctx, r.store, localstore.EntityDialogChat, localstore.OpDelete, syncer.DeletePayload{ID: id}, now); qerr != nil {
			return qerr
		}
		r.logger.Info("chat delete queued offline", "id", id, "error", err)
	}
	return nil
}

// Messages fetches a chat's history from the remote service. When the chat
// has a pending offline-queued message, the remote list is merged with the
// local one (deduplicated by role+created+content, sorted by created) so a
// message composed offline is not lost from the visible history. A failed
// remote call serves the cached messages.
func (r *Dialog) Messages(ctx context.Context, chatID string, limit int, before int64) ([]model.DialogMessage, error) {
	remote, err := r.api.Messages(ctx, chatID, limit, before)
	if err != nil {
		r.logger.Debug("remote message list failed, serving cache",
			"chat", chatID, "error", err)
		return r.store.ListMessages(ctx, chatID)
	}
	for _, m := range remote {
		if err := r.store.UpsertMessage(ctx, m); err != nil {
			return nil, err
		}
	}

	pending, err := r.hasPendingMessage(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !pending {
		return remote, nil
	}

	local, err := r.store.ListMessages(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return mergeMessages(remote, local), nil
}

// Send posts a message to a chat, optimistically storing it first. On remote
// failure the message (including any audio payload) is queued for replay.
func (r *Dialog) Send(ctx context.Context, chatID string, opts SendOptions) (*model.DialogMessage, []model.DialogSuggestion, error) {
	now := time.Now().UnixMilli()
	local := model.DialogMessage{
		ID:      uuid.NewString(),
		ChatID:  chatID,
		Role:    opts.Role,
		Content: opts.Content,
		Source:  opts.Source,
		Created: now,
	}
	if err := r.store.UpsertMessage(ctx, local); err != nil {
		return nil, nil, err
	}

	req := linkaapi.SendMessageRequest{
		Role:               opts.Role,
		Content:            opts.Content,
		Source:             opts.Source,
		Created:            now,
		IncludeSuggestions: opts.IncludeSuggestions,
	}

	var resp *linkaapi.SendMessageResponse
	var err error
	if len(opts.Audio) > 0 {
		resp, err = r.api.SendMessageWithAudio(ctx, chatID, req, opts.Audio, opts.AudioName)
	} else {
		resp, err = r.api.SendMessage(ctx, chatID, req)
	}
	if err != nil {
		payload := syncer.MessageCreatePayload{
			ClientID:           local.ID,
			ChatID:             chatID,
			Role:               opts.Role,
			Content:            opts.Content,
			Source:             opts.Source,
			Created:            now,
			IncludeSuggestions: opts.IncludeSuggestions,
			Audio:              opts.Audio,
			AudioName:          opts.AudioName,
		}
		if qerr := enqueue(ctx, r.store, localstore.EntityDialogMessage, localstore.OpCreate, payload, now); qerr != nil {
			return nil, nil, qerr
		}
		r.logger.Info("message queued offline", "chat", chatID, "error", err)
		return &local, nil, nil
	}

	if resp.Message.ID != local.ID {
		if err := r.store.DeleteMessage(ctx, local.ID); err != nil {
			return nil, nil, err
		}
	}
	if err := r.store.UpsertMessage(ctx, resp.Message); err != nil {
		return nil, nil, err
	}
	if len(resp.Suggestions) > 0 {
		if err := r.store.ReplaceSuggestions(ctx, chatID, resp.Suggestions); err != nil {
			return nil, nil, err
		}
	}
	return &resp.Message, resp.Suggestions, nil
}

// Suggestions returns the cached reply suggestions for a chat.
func (r *Dialog) Suggestions(ctx context.Context, chatID string) ([]model.DialogSuggestion, error) {
	return r.store.ListSuggestions(ctx, chatID)
}

// hasPendingMessage reports whether the offline queue holds a message create
// for the given chat.
func (r *Dialog) hasPendingMessage(ctx context.Context, chatID string) (bool, error) {
	entries, err := r.store.ListOfflineQueue(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to inspect offline queue: %w", err)
	}
	for _, entry := range entries {
		if entry.EntityType != localstore.EntityDialogMessage {
			continue
		}
		if syncer.MessagePayloadChatID(entry.Payload) == chatID {
			return true, nil
		}
	}
	return false, nil
}

// mergeMessages combines remote and local message lists, deduplicating by
// role+created+content and sorting by creation time.
func mergeMessages(remote, local []model.DialogMessage) []model.DialogMessage {
	seen := make(map[string]struct{}, len(remote)+len(local))
	key := func(m *model.DialogMessage) string {
		return fmt.Sprintf("%s|%d|%s", m.Role, m.Created, m.Content)
	}

	merged := make([]model.DialogMessage, 0, len(remote)+len(local))
	for _, m := range remote {
		seen[key(&m)] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range local {
		if _, ok := seen[key(&m)]; ok {
			continue
		}
		seen[key(&m)] = struct{}{}
		merged = append(merged, m)
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].Created < merged[j].Created })
	return merged
}
