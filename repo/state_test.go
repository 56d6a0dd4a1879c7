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
)

func TestStateGet_OfflineWithEmptyCacheReturnsNormalizedZeroState(t *testing.T) {
	store := newTestStore(t)

	r := NewState(store, offlineClient(), nil)
	state, err := r.Get(context.Background())
	require.NoError(t, err)
	require.False(t, state.Inited)
	require.Len(t, state.Quickes, model.QuickSlots)
	for _, q := range state.Quickes {
		require.Empty(t, q)
	}
}

func TestStateUpdate_QuickesNormalizedToSixSlots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := NewState(store, offlineClient(), nil)
	updated, err := r.Update(ctx, StateUpdate{Quickes: []string{"first"}})
	require.NoError(t, err)

	require.Len(t, updated.Quickes, model.QuickSlots)
	require.Equal(t, "first", updated.Quickes[0])
	for _, q := range updated.Quickes[1:] {
		require.Empty(t, q)
	}

	// Overlong input is truncated, not rejected.
	long := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	updated, err = r.Update(ctx, StateUpdate{Quickes: long})
	require.NoError(t, err)
	require.Len(t, updated.Quickes, model.QuickSlots)
	require.Equal(t, "f", updated.Quickes[model.QuickSlots-1])
}

func TestStateUpdate_PartialUpdatePreservesOtherFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetUserState(ctx, model.UserState{
		Inited:      true,
		Quickes:     model.NormalizeQuickes([]string{"hi"}),
		Preferences: json.RawMessage(`{"voice":"alena"}`),
	}))

	r := NewState(store, offlineClient(), nil)
	updated, err := r.Update(ctx, StateUpdate{Quickes: []string{"changed"}})
	require.NoError(t, err)

	require.True(t, updated.Inited, "inited untouched")
	require.JSONEq(t, `{"voice":"alena"}`, string(updated.Preferences))
	require.Equal(t, "changed", updated.Quickes[0])
}

func TestStateUpdate_OfflineQueuesFullState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	inited := true
	r := NewState(store, offlineClient(), nil)
	_, err := r.Update(ctx, StateUpdate{Inited: &inited, Quickes: []string{"q"}})
	require.NoError(t, err)

	entries, err := store.ListOfflineQueue(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, localstore.EntityState, entries[0].EntityType)
	require.Equal(t, localstore.OpSet, entries[0].OpType)

	var req linkaapi.PutStateRequest
	require.NoError(t, json.Unmarshal(entries[0].Payload, &req))
	require.NotNil(t, req.Inited)
	require.True(t, *req.Inited)
	require.Len(t, req.Quickes, model.QuickSlots, "queued payload carries the merged full state")
}

func TestStateGet_RemoteRefreshesCache(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(t, http.StatusOK, model.UserState{
			Inited:  true,
			Quickes: []string{"server"},
		}), nil
	})
	r := NewState(store, newTestClient(rt), nil)

	state, err := r.Get(ctx)
	require.NoError(t, err)
	require.True(t, state.Inited)
	require.Len(t, state.Quickes, model.QuickSlots)

	cached, err := store.GetUserState(ctx)
	require.NoError(t, err)
	require.True(t, cached.Inited)
	require.Equal(t, "server", cached.Quickes[0])
}
