package toml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careguide/careguide-cli/internal/domain"
)

func newTestRepository(t *testing.T) (*RoomRepository, string) {
	t.Helper()

	roomsPath := filepath.Join(t.TempDir(), "rooms.toml")
	config := viper.New()
	config.Set(roomsPathKey, roomsPath)

	repo, err := NewRoomRepository(config)
	require.NoError(t, err)
	return repo, roomsPath
}

func TestRoomRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	created := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	first := domain.Room{
		ID:              "room-1",
		Title:           "Diet questions",
		AgentType:       "nutrition",
		MessageCount:    4,
		LastMessage:     "watch your potassium",
		LastMessageTime: created.Add(time.Hour),
		IsPinned:        true,
		CreatedAt:       created,
		UpdatedAt:       created.Add(time.Hour),
	}
	second := domain.Room{
		ID:        "room-2",
		Title:     "Lab results",
		AgentType: "general",
		CreatedAt: created,
		UpdatedAt: created,
	}

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))

	got, err := repo.GetByID(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
}

func TestRoomRepositorySaveUpdatesExistingRoom(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	room := domain.Room{ID: "room-1", Title: "Before"}

	require.NoError(t, repo.Save(context.Background(), room))

	room.Title = "After"
	room.IsArchived = true
	require.NoError(t, repo.Save(context.Background(), room))

	got, err := repo.GetByID(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.True(t, got.IsArchived)

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
}

func TestRoomRepositoryDelete(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), domain.Room{ID: "room-1"}))
	require.NoError(t, repo.Save(context.Background(), domain.Room{ID: "room-2"}))

	require.NoError(t, repo.Delete(context.Background(), "room-1"))

	_, err := repo.GetByID(context.Background(), "room-1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "room-2", rooms[0].ID)

	err = repo.Delete(context.Background(), "room-1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomRepositoryMissingFileListsEmpty(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rooms)

	_, err = repo.GetByID(context.Background(), "room-1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomRepositoryRejectsNewerSchemaVersion(t *testing.T) {
	t.Parallel()

	repo, roomsPath := newTestRepository(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(roomsPath), 0o700))
	require.NoError(t, os.WriteFile(roomsPath, []byte("version = 99\n"), 0o600))

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported rooms schema version")
}

func TestRoomRepositoryWritesWithRestrictedPermissions(t *testing.T) {
	t.Parallel()

	repo, roomsPath := newTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), domain.Room{ID: "room-1"}))

	info, err := os.Stat(roomsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(roomsFileMode), info.Mode().Perm())
}
