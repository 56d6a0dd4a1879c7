// Package syncer contains the two halves of the sync engine: the Queue
// Processor that drains the offline mutation queue against the remote
// service, and the Change Syncer that polls the change feed and merges
// remote-authored changes into the local store.
package syncer

import (
	"encoding/json"

	"github.com/linkasu/linkatype-sync/linkaapi"
)

// Queue payloads are minimal replay descriptors, JSON-encoded into the
// offline queue by the repository layer and decoded here on replay. Create
// and set operations reuse the API request structs directly since they
// already carry everything needed to reconstruct the call.

// CategoryUpdatePayload replays PATCH /v1/categories/{id}.
type CategoryUpdatePayload struct {
	ID    string  `json:"id"`
	Label *string `json:"label,omitempty"`
	AIUse *bool   `json:"aiUse,omitempty"`
}

// StatementUpdatePayload replays PATCH /v1/statements/{id}.
type StatementUpdatePayload struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// DeletePayload replays a DELETE by entity id.
type DeletePayload struct {
	ID string `json:"id"`
}

// ChatCreatePayload replays POST /v1/dialog/chats. ClientID is the
// optimistic local chat id; the server assigns the canonical id.
type ChatCreatePayload struct {
	ClientID string `json:"clientId"`
	Title    string `json:"title,omitempty"`
}

// MessageCreatePayload replays POST /v1/dialog/chats/{id}/messages,
// including the multipart variant when Audio is present.
type MessageCreatePayload struct {
	ClientID           string `json:"clientId"`
	ChatID             string `json:"chatId"`
	Role               string `json:"role"`
	Content            string `json:"content"`
	Source             string `json:"source,omitempty"`
	Created            int64  `json:"created"`
	IncludeSuggestions bool   `json:"includeSuggestions,omitempty"`
	Audio              []byte `json:"audio,omitempty"`
	AudioName          string `json:"audioName,omitempty"`
}

// MessagePayloadChatID extracts the chat id from a queued message payload,
// returning an empty string when the payload does not decode.
func MessagePayloadChatID(payload []byte) string {
	var p MessageCreatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return ""
	}
	return p.ChatID
}

// MessageRequest converts the payload into the API request shape.
func (p *MessageCreatePayload) MessageRequest() linkaapi.SendMessageRequest {
	return linkaapi.SendMessageRequest{
		Role:               p.Role,
		Content:            p.Content,
		Source:             p.Source,
		Created:            p.Created,
		IncludeSuggestions: p.IncludeSuggestions,
	}
}
