package syncer

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/linkasu/linkatype-sync/linkaapi"
	"github.com/linkasu/linkatype-sync/localstore"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestStore(t *testing.T) *localstore.Store {
	t.Helper()
	store, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestClient(rt roundTripFunc) *linkaapi.Client {
	client := linkaapi.NewClient("http://sync.test", func(ctx context.Context) (string, error) {
		return "test-token", nil
	})
	client.HTTP = &http.Client{Transport: rt}
	return client
}

func jsonResponse(t *testing.T, status int, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// changesOnce serves the given feed response on the first call and empty
// batches afterwards.
func changesOnce(t *testing.T, resp linkaapi.ChangesResponse) roundTripFunc {
	t.Helper()
	calls := 0
	return func(r *http.Request) (*http.Response, error) {
		require.Equal(t, "/v1/changes", r.URL.Path)
		calls++
		if calls == 1 {
			return jsonResponse(t, http.StatusOK, resp), nil
		}
		return jsonResponse(t, http.StatusOK, linkaapi.ChangesResponse{Cursor: resp.Cursor}), nil
	}
}

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
