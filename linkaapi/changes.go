package linkaapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
)

// Change is a single remote-authored mutation from the change feed.
type Change struct {
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Op         string          `json:"op"`
	Payload    json.RawMessage `json:"payload"`
	UpdatedAt  int64           `json:"updatedAt"`
}

// ChangesResponse is one batch window of the change feed. The cursor is
// opaque; a non-blank cursor must be persisted by the caller even when the
// batch is empty.
type ChangesResponse struct {
	Cursor  string   `json:"cursor"`
	Changes []Change `json:"changes"`
}

// Changes long-polls the change feed. The call blocks server-side up to
// timeoutSeconds; cancellation happens through ctx.
func (c *Client) Changes(ctx context.Context, cursor string, limit, timeoutSeconds int) (*ChangesResponse, error) {
	query := url.Values{}
	if cursor != "" {
		query.Set("cursor", cursor)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if timeoutSeconds > 0 {
		query.Set("timeout", strconv.Itoa(timeoutSeconds))
	}
	path := "/v1/changes"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var out ChangesResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
