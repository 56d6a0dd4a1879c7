// Package model defines the entities shared between the local store,
// the remote API client and the repository layer.
package model

import "encoding/json"

// QuickSlots is the fixed number of quick phrase slots in the user state.
const QuickSlots = 6

// Category is a phrase category.
type Category struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Created   int64  `json:"created"`
	IsDefault bool   `json:"isDefault"`
	AIUse     bool   `json:"aiUse"`
	UpdatedAt *int64 `json:"updatedAt,omitempty"`
}

// SyncTimestamp returns the timestamp used for last-write-wins comparison.
// A record that was never updated falls back to its creation time.
func (c *Category) SyncTimestamp() int64 {
	if c.UpdatedAt != nil {
		return *c.UpdatedAt
	}
	return c.Created
}

// Statement is a phrase belonging to a category. The category reference is
// not enforced by the store.
type Statement struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	Text       string `json:"text"`
	Created    int64  `json:"created"`
	UpdatedAt  *int64 `json:"updatedAt,omitempty"`
}

// SyncTimestamp returns the timestamp used for last-write-wins comparison.
func (s *Statement) SyncTimestamp() int64 {
	if s.UpdatedAt != nil {
		return *s.UpdatedAt
	}
	return s.Created
}

// UserState is the singleton per-user record: init flag, the quick phrase
// slots and an opaque preferences blob.
type UserState struct {
	Inited      bool            `json:"inited"`
	Quickes     []string        `json:"quickes"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
}

// NormalizeQuickes returns quickes adjusted to exactly QuickSlots entries:
// truncated if longer, padded with empty strings if shorter.
func NormalizeQuickes(quickes []string) []string {
	out := make([]string, QuickSlots)
	for i := 0; i < QuickSlots && i < len(quickes); i++ {
		out[i] = quickes[i]
	}
	return out
}

// DialogChat is a conversation owning zero or more messages and suggestions.
type DialogChat struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Created   int64  `json:"created"`
	UpdatedAt *int64 `json:"updatedAt,omitempty"`
}

// DialogMessage is a single message inside a chat.
type DialogMessage struct {
	ID      string `json:"id"`
	ChatID  string `json:"chatId"`
	Role    string `json:"role"`
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
	Created int64  `json:"created"`
}

// DialogSuggestion is a reply suggestion attached to a chat.
type DialogSuggestion struct {
	ID      string `json:"id"`
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
	Created int64  `json:"created"`
}
