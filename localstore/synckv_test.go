package localstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyncKV(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	value, err := store.GetSyncValue(ctx, KeyCursor)
	require.NoError(t, err)
	require.Empty(t, value, "unset key reads as empty string")

	require.NoError(t, store.SetSyncValue(ctx, KeyCursor, "cursor-1"))
	require.NoError(t, store.SetSyncValue(ctx, KeyCursor, "cursor-2"))

	value, err = store.GetSyncValue(ctx, KeyCursor)
	require.NoError(t, err)
	require.Equal(t, "cursor-2", value)
}

func TestSyncInt64Watermarks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.GetSyncInt64(ctx, KeyStateWatermark)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, store.SetSyncInt64(ctx, KeyStateWatermark, 1234567890123))
	n, err = store.GetSyncInt64(ctx, KeyStateWatermark)
	require.NoError(t, err)
	require.Equal(t, int64(1234567890123), n)

	// Watermarks are independent per key.
	n, err = store.GetSyncInt64(ctx, KeyQuickesWatermark)
	require.NoError(t, err)
	require.Zero(t, n)

	// Malformed values read as zero rather than failing.
	require.NoError(t, store.SetSyncValue(ctx, KeyQuickesWatermark, "not-a-number"))
	n, err = store.GetSyncInt64(ctx, KeyQuickesWatermark)
	require.NoError(t, err)
	require.Zero(t, n)
}
