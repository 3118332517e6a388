package rating

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_MissingFileLoadsEmptySnapshot(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "ratings.json"))

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Users)
	assert.Empty(t, snap.Reactions)
	assert.NotNil(t, snap.Chats)
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.json")
	store := NewFileStore(path)
	ctx := context.Background()

	snap := NewSnapshot()
	snap.Users[1] = &User{ID: 1, Username: "alice", Rating: 1025}
	snap.Users[2] = &User{ID: 2, Username: "bob", Rating: 875}
	snap.WeeklyActivity[1] = true
	snap.WeeklyRatingChanges[1] = 25
	snap.WeeklyRatingChanges[2] = -125
	snap.Reactions[ReactionKey(-100, 500)] = map[int64]Direction{2: DirectionUp}
	snap.Chats[-100] = true

	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestFileStore_SaveOverwritesWhole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.json")
	store := NewFileStore(path)
	ctx := context.Background()

	first := NewSnapshot()
	first.Users[1] = &User{ID: 1, Username: "alice", Rating: 1000}
	require.NoError(t, store.Save(ctx, first))

	second := NewSnapshot()
	second.Users[2] = &User{ID: 2, Username: "bob", Rating: 900}
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.NotContains(t, loaded.Users, int64(1))
	assert.Contains(t, loaded.Users, int64(2))
}

func TestFileStore_LoadsLegacySnapshotWithoutChats(t *testing.T) {
	// снапшот времён исходного бота: без ключа chats и без reactions
	legacy := `{
  "users": { "1": { "id": 1, "username": "alice", "rating": 1100 } },
  "weeklyActivity": { "1": true },
  "weeklyRatingChanges": { "1": 100 }
}`
	path := filepath.Join(t.TempDir(), "ratings.json")
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	snap, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1100, snap.Users[1].Rating)
	assert.NotNil(t, snap.Reactions, "nil-карты добиваются при загрузке")
	assert.NotNil(t, snap.Chats)
}

func TestFileStore_LoadRejectsCorruptJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.json")
	require.NoError(t, os.WriteFile(path, []byte("{обрезанный"), 0o644))

	_, err := NewFileStore(path).Load(context.Background())
	require.Error(t, err)
}
