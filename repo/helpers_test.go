package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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

// offlineClient fails every request at the transport, simulating no
// connectivity at all.
func offlineClient() *linkaapi.Client {
	return newTestClient(func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})
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
