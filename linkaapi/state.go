package linkaapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/linkasu/linkatype-sync/model"
)

// PutStateRequest is the body of PUT /v1/user/state. Nil/empty fields are
// left untouched by the server.
type PutStateRequest struct {
	Inited      *bool           `json:"inited,omitempty"`
	Quickes     []string        `json:"quickes,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
}

// State fetches the user state singleton.
func (c *Client) State(ctx context.Context) (*model.UserState, error) {
	var out model.UserState
	if err := c.do(ctx, http.MethodGet, "/v1/user/state", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PutState updates the user state and returns the server-canonical record.
func (c *Client) PutState(ctx context.Context, req PutStateRequest) (*model.UserState, error) {
	var out model.UserState
	if err := c.do(ctx, http.MethodPut, "/v1/user/state", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
