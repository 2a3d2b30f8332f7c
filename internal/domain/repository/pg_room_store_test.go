package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"codequest_admin/internal/common"
	"codequest_admin/internal/domain/model"
	"codequest_admin/internal/platform/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database only when TEST_DATABASE_URL is set.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Connect(context.Background(), connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPgRoomStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewPgRoomStore(db)
	ctx := context.Background()

	code, err := model.GenerateRoomCode()
	require.NoError(t, err)
	room := &model.Room{Code: code, Name: "pg test", StartingPoints: 500, MaxTeams: 4, Status: model.RoomNotStarted}
	require.NoError(t, store.CreateRoom(ctx, room))
	t.Cleanup(func() { store.DeleteRoom(ctx, room.ID) })
	assert.False(t, room.CreatedAt.IsZero())

	dup := &model.Room{Code: code, Name: "dup", Status: model.RoomNotStarted}
	assert.ErrorIs(t, store.CreateRoom(ctx, dup), common.ErrConflict)

	teamID := uuid.NewString()
	_, err = db.ExecContext(ctx, `INSERT INTO teams (id, room_id, name, points) VALUES ($1, $2, 'Alpha', 500)`, teamID, room.ID)
	require.NoError(t, err)

	q := &model.Question{Order: 1, Title: "Two Sum", Points: 100, Examples: []model.Example{{Input: "1 2", Output: "3"}}}
	require.NoError(t, store.CreateQuestion(ctx, room.ID, q))
	assert.ErrorIs(t, store.CreateQuestion(ctx, room.ID, &model.Question{Order: 1, Title: "dup"}), common.ErrConflict)

	teams, err := store.ListTeams(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)

	banned, err := teams[0].Ban("copying", time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, err)
	live := *room
	live.Status = model.RoomLive
	require.NoError(t, store.Apply(ctx, ChangeSet{
		RoomID:        room.ID,
		Room:          &RoomChange{Before: *room, After: live},
		Teams:         []TeamChange{{Before: teams[0], After: banned}},
		LockQuestions: BoolPtr(true),
	}))

	teams, err = store.ListTeams(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TeamBanned, teams[0].Status)
	require.Len(t, teams[0].BanHistory, 1)
	assert.Nil(t, teams[0].BanHistory[0].UnbannedAt)

	unbanned, err := teams[0].Unban(time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Apply(ctx, ChangeSet{RoomID: room.ID, Teams: []TeamChange{{Before: teams[0], After: unbanned}}}))
	teams, _ = store.ListTeams(ctx, room.ID)
	require.Len(t, teams[0].BanHistory, 1)
	assert.NotNil(t, teams[0].BanHistory[0].UnbannedAt)

	questions, err := store.ListQuestions(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.True(t, questions[0].Locked)
	assert.Equal(t, "3", questions[0].Examples[0].Output)

	err = store.Apply(ctx, ChangeSet{RoomID: room.ID, Trades: []model.Trade{{ID: "missing", Status: model.TradeCancelled}}})
	assert.ErrorIs(t, err, common.ErrNotFound)
}
