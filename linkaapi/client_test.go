package linkaapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func staticToken(token string) TokenFunc {
	return func(ctx context.Context) (string, error) { return token, nil }
}

func TestClientSendsAuthorizationHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("secret-token"))
	_, err := client.Categories(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer secret-token", gotAuth)
}

func TestClientMapsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("category not found"))
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("t"))
	err := client.DeleteCategory(context.Background(), "missing")
	require.Error(t, err)

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
	require.Equal(t, "category not found", apiErr.Message)
}

func TestCreateCategoryRoundTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/categories", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req CreateCategoryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "c1", req.ID)
		require.Equal(t, "greetings", req.Label)

		json.NewEncoder(w).Encode(map[string]any{
			"id": req.ID, "label": req.Label, "created": req.Created, "aiUse": req.AIUse,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("t"))
	cat, err := client.CreateCategory(context.Background(), CreateCategoryRequest{
		ID: "c1", Label: "greetings", Created: 1000, AIUse: true,
	})
	require.NoError(t, err)
	require.Equal(t, "c1", cat.ID)
	require.True(t, cat.AIUse)
}

func TestChangesQueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/changes", r.URL.Path)
		require.Equal(t, "abc", r.URL.Query().Get("cursor"))
		require.Equal(t, "50", r.URL.Query().Get("limit"))
		require.Equal(t, "25", r.URL.Query().Get("timeout"))
		json.NewEncoder(w).Encode(ChangesResponse{Cursor: "def"})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("t"))
	resp, err := client.Changes(context.Background(), "abc", 50, 25)
	require.NoError(t, err)
	require.Equal(t, "def", resp.Cursor)
	require.Empty(t, resp.Changes)
}

func TestChangesOmitsEmptyCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["cursor"]
		require.False(t, present, "blank cursor must not be sent")
		json.NewEncoder(w).Encode(ChangesResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("t"))
	_, err := client.Changes(context.Background(), "", 10, 0)
	require.NoError(t, err)
}

func TestSendMessageWithAudioMultipart(t *testing.T) {
	audio := []byte{0x52, 0x49, 0x46, 0x46, 0x01, 0x02}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/dialog/chats/ch1/messages", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var req SendMessageRequest
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("message")), &req))
		require.Equal(t, "user", req.Role)
		require.Equal(t, "hello", req.Content)

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "rec.wav", header.Filename)
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, audio, data)

		json.NewEncoder(w).Encode(SendMessageResponse{})
	}))
	defer server.Close()

	client := NewClient(server.URL, staticToken("t"))
	_, err := client.SendMessageWithAudio(context.Background(), "ch1", SendMessageRequest{
		Role: "user", Content: "hello", Created: 1,
	}, audio, "rec.wav")
	require.NoError(t, err)
}
