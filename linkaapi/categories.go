package linkaapi

import (
	"context"
	"net/http"
	"net/url"

	"github.com/linkasu/linkatype-sync/model"
)

// CreateCategoryRequest is the body of POST /v1/categories. The id is
// client-generated so optimistic local rows keep their identity.
type CreateCategoryRequest struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Created int64  `json:"created"`
	AIUse   bool   `json:"aiUse"`
}

// UpdateCategoryRequest is the body of PATCH /v1/categories/{id}. Nil fields
// are left untouched by the server.
type UpdateCategoryRequest struct {
	Label *string `json:"label,omitempty"`
	AIUse *bool   `json:"aiUse,omitempty"`
}

// Categories fetches all categories.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	if err := c.do(ctx, http.MethodGet, "/v1/categories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateCategory creates a category and returns the server-canonical record.
func (c *Client) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*model.Category, error) {
	var out model.Category
	if err := c.do(ctx, http.MethodPost, "/v1/categories", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCategory patches a category and returns the server-canonical record.
func (c *Client) UpdateCategory(ctx context.Context, id string, req UpdateCategoryRequest) (*model.Category, error) {
	var out model.Category
	if err := c.do(ctx, http.MethodPatch, "/v1/categories/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCategory removes a category on the server.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/categories/"+url.PathEscape(id), nil, nil)
}
