package linkaapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/linkasu/linkatype-sync/model"
)

// CreateStatementRequest is the body of POST /v1/statements.
type CreateStatementRequest struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId"`
	Text       string `json:"text"`
	Created    int64  `json:"created"`
}

// UpdateStatementRequest is the body of PATCH /v1/statements/{id}.
type UpdateStatementRequest struct {
	Text string `json:"text"`
}

// Statements fetches all statements of one category.
func (c *Client) Statements(ctx context.Context, categoryID string) ([]model.Statement, error) {
	var out []model.Statement
	path := "/v1/categories/" + url.PathEscape(categoryID) + "/statements"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateStatement creates a statement and returns the server-canonical
// record.
func (c *Client) CreateStatement(ctx context.Context, req CreateStatementRequest) (*model.Statement, error) {
	var out model.Statement
	if err := c.do(ctx, http.MethodPost, "/v1/statements", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatement patches a statement's text and returns the
// server-canonical record.
func (c *Client) UpdateStatement(ctx context.Context, id string, req UpdateStatementRequest) (*model.Statement, error) {
	var out model.Statement
	if err := c.do(ctx, http.MethodPatch, "/v1/statements/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteStatement removes a statement on the server.
func (c *Client) DeleteStatement(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/statements/"+url.PathEscape(id), nil, nil)
}
