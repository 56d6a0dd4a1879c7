package repo

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linkasu/linkatype-sync/linkaapi"
	"github.com/linkasu/linkatype-sync/localstore"
	"github.com/linkasu/linkatype-sync/model"
	"github.com/linkasu/linkatype-sync/syncer"
)

func TestCategoryList_FallsBackToCacheWhenOffline(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertCategory(ctx, model.Category{
		ID: "c1", Label: "Greetings", Created: 100,
	}))

	r := NewCategories(store, offlineClient(), nil)
	listed, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, "Greetings", listed[0].Label)
}

func TestCategoryList_RemoteWinsAndRefreshesCache(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertCategory(ctx, model.Category{
		ID: "c1", Label: "Stale", Created: 100,
	}))

	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(t, http.StatusOK, []model.Category{
			{ID: "c1", Label: "Fresh", Created: 100},
		}), nil
	})
	r := NewCategories(store, newTestClient(rt), nil)

	listed, err := r.List(ctx)
	require.NoError(t, err)
	require.Equal(t, "Fresh", listed[0].Label)

	cached, err := store.FindCategory(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "Fresh", cached.Label)
}

func TestCategoryCreate_OfflineQueuesFullRequest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := NewCategories(store, offlineClient(), nil)
	created, err := r.Create(ctx, "Food", true)
	require.NoError(t, err)
	require.True(t, created.AIUse)

	entries, err := store.ListOfflineQueue(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, localstore.EntityCategory, entries[0].EntityType)
	require.Equal(t, localstore.OpCreate, entries[0].OpType)

	var req linkaapi.CreateCategoryRequest
	require.NoError(t, json.Unmarshal(entries[0].Payload, &req))
	require.Equal(t, created.ID, req.ID)
	require.Equal(t, "Food", req.Label)
	require.True(t, req.AIUse)
}

func TestCategoryUpdate_PartialPatchPreservesOtherFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertCategory(ctx, model.Category{
		ID: "c1", Label: "Old", Created: 100, AIUse: true,
	}))

	label := "New"
	r := NewCategories(store, offlineClient(), nil)
	updated, err := r.Update(ctx, "c1", &label, nil)
	require.NoError(t, err)
	require.Equal(t, "New", updated.Label)
	require.True(t, updated.AIUse, "untouched field keeps its value")
	require.NotNil(t, updated.UpdatedAt)

	entries, err := store.ListOfflineQueue(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var payload syncer.CategoryUpdatePayload
	require.NoError(t, json.Unmarshal(entries[0].Payload, &payload))
	require.Equal(t, "c1", payload.ID)
	require.NotNil(t, payload.Label)
	require.Equal(t, "New", *payload.Label)
	require.Nil(t, payload.AIUse, "nil fields are not sent")
}

func TestCategoryDelete_CascadesStatementsLocally(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertCategory(ctx, model.Category{ID: "c1", Label: "X", Created: 1}))
	require.NoError(t, store.UpsertStatement(ctx, model.Statement{
		ID: "s1", CategoryID: "c1", Text: "inside", Created: 2,
	}))

	r := NewCategories(store, offlineClient(), nil)
	require.NoError(t, r.Delete(ctx, "c1"))

	_, err := store.FindCategory(ctx, "c1")
	require.ErrorIs(t, err, localstore.ErrNotFound)
	_, err = store.FindStatement(ctx, "s1")
	require.ErrorIs(t, err, localstore.ErrNotFound)

	entries, err := store.ListOfflineQueue(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, localstore.OpDelete, entries[0].OpType)
}
