package linkaapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/linkasu/linkatype-sync/model"
)

// CreateChatRequest is the body of POST /v1/dialog/chats. The server assigns
// the chat id.
type CreateChatRequest struct {
	Title string `json:"title,omitempty"`
}

// SendMessageRequest is the JSON body (or the JSON part of the multipart
// body) of POST /v1/dialog/chats/{id}/messages.
type SendMessageRequest struct {
	Role               string `json:"role"`
	Content            string `json:"content"`
	Source             string `json:"source,omitempty"`
	Created            int64  `json:"created"`
	IncludeSuggestions bool   `json:"includeSuggestions,omitempty"`
}

// SendMessageResponse carries the stored message plus optional reply
// suggestions.
type SendMessageResponse struct {
	Message     model.DialogMessage      `json:"message"`
	Suggestions []model.DialogSuggestion `json:"suggestions,omitempty"`
}

// Chats fetches all dialog chats.
func (c *Client) Chats(ctx context.Context) ([]model.DialogChat, error) {
	var out []model.DialogChat
	if err := c.do(ctx, http.MethodGet, "/v1/dialog/chats", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateChat creates a chat and returns the server-canonical record.
func (c *Client) CreateChat(ctx context.Context, req CreateChatRequest) (*model.DialogChat, error) {
	var out model.DialogChat
	if err := c.do(ctx, http.MethodPost, "/v1/dialog/chats", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteChat removes a chat on the server.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/dialog/chats/"+url.PathEscape(id), nil, nil)
}

// Messages fetches messages of a chat. limit and before are optional; zero
// values are omitted from the query.
func (c *Client) Messages(ctx context.Context, chatID string, limit int, before int64) ([]model.DialogMessage, error) {
	path := "/v1/dialog/chats/" + url.PathEscape(chatID) + "/messages"
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if before > 0 {
		query.Set("before", strconv.FormatInt(before, 10))
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out []model.DialogMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SendMessage posts a message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID string, req SendMessageRequest) (*SendMessageResponse, error) {
	var out SendMessageResponse
	path := "/v1/dialog/chats/" + url.PathEscape(chatID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessageWithAudio posts a message together with an audio payload as a
// multipart request: a "message" JSON part plus an "audio" file part.
func (c *Client) SendMessageWithAudio(ctx context.Context, chatID string, req SendMessageRequest, audio []byte, filename string) (*SendMessageResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	meta, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message part: %w", err)
	}
	if err := writer.WriteField("message", string(meta)); err != nil {
		return nil, fmt.Errorf("failed to write message part: %w", err)
	}

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	path := "/v1/dialog/chats/" + url.PathEscape(chatID) + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	var out SendMessageResponse
	if err := c.send(httpReq, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
