package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wishp-chat/chatroom-service/internal/domain"
)

func TestSetPresent_UpsertOverwrites(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewPresenceService(store)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	require.NoError(t, svc.SetPresent(ctx, "ABC123", "alice", true))

	list, err := svc.ListPresence(ctx, "ABC123")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].Present)
	require.Equal(t, base, list[0].LastSeen)

	// повторный вызов — перезапись, а не вторая строка
	svc.now = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, svc.SetPresent(ctx, "ABC123", "alice", false))

	list, err = svc.ListPresence(ctx, "ABC123")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.False(t, list[0].Present)
	require.Equal(t, base.Add(time.Minute), list[0].LastSeen)
}

func TestSetPresent_EmptyUsername(t *testing.T) {
	t.Parallel()

	svc := NewPresenceService(newMemStore())

	err := svc.SetPresent(context.Background(), "ABC123", "  ", true)
	require.ErrorIs(t, err, domain.ErrEmptyUsername)
}

func TestTouch_KeepsPresent(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewPresenceService(store)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	require.NoError(t, svc.SetPresent(ctx, "ABC123", "bob", true))

	svc.now = func() time.Time { return base.Add(30 * time.Second) }
	require.NoError(t, svc.Touch(ctx, "ABC123", "bob"))

	list, err := svc.ListPresence(ctx, "ABC123")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].Present)
	require.Equal(t, base.Add(30*time.Second), list[0].LastSeen)
}

func TestListPresence_PerRoom(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := NewPresenceService(store)
	ctx := context.Background()

	require.NoError(t, svc.SetPresent(ctx, "ROOM01", "alice", true))
	require.NoError(t, svc.SetPresent(ctx, "ROOM01", "bob", false))
	require.NoError(t, svc.SetPresent(ctx, "ROOM02", "carol", true))

	list, err := svc.ListPresence(ctx, "ROOM01")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "alice", list[0].Username)
	require.Equal(t, "bob", list[1].Username)
}
