package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ratwatch/sighting-api/internal/config"
	"github.com/ratwatch/sighting-api/internal/database"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
	"github.com/ratwatch/sighting-api/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(&config.Config{DatabaseURL: ":memory:"}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	return db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	users := []models.User{
		{Subject: "a", Username: "alice", Points: 120, Rank: models.RankScout},
		{Subject: "b", Username: "bob", Points: 40, Rank: models.RankNovice},
		{Subject: "c", Username: "carol", Points: 120, Rank: models.RankScout},
		{Subject: "d", Username: "dave", Points: 1500, Rank: models.RankMaster},
	}
	for i := range users {
		require.NoError(t, db.Create(&users[i]).Error)
	}
}

func TestDB_Top(t *testing.T) {
	db := setupDB(t)
	seed(t, db)
	board := NewDB(store.NewUsers(db, logger.Nop()))

	entries, err := board.Top(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "dave", entries[0].Username)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, "Rat Master", entries[0].Title)
	// Equal points fall back to registration order.
	assert.Equal(t, "alice", entries[1].Username)
	assert.Equal(t, "carol", entries[2].Username)
	assert.Equal(t, 3, entries[2].Position)

	assert.NoError(t, board.Record(context.Background(), models.User{}))
}

func TestRedis_FallsBackWhenUnreachable(t *testing.T) {
	db := setupDB(t)
	seed(t, db)

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	board := NewRedis(client, store.NewUsers(db, logger.Nop()), logger.Nop())

	err := board.Record(context.Background(), models.User{Model: gorm.Model{ID: 1}, Points: 10})
	assert.Error(t, err)

	entries, err := board.Top(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "dave", entries[0].Username)
}

func setupRedis(t *testing.T, db *gorm.DB) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedis(client, store.NewUsers(db, logger.Nop()), logger.Nop())
}

func userNamed(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.Where("username = ?", username).First(&u).Error)
	return u
}

func TestRedis_WarmAndRecord(t *testing.T) {
	db := setupDB(t)
	seed(t, db)
	_, board := setupRedis(t, db)
	ctx := context.Background()

	require.NoError(t, board.Warm(ctx))

	entries, err := board.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "dave", entries[0].Username)
	assert.Equal(t, 1500, entries[0].Points)
	assert.Equal(t, "Rat Master", entries[0].Title)
	// Equal points order by id, the same as the database.
	assert.Equal(t, "alice", entries[1].Username)
	assert.Equal(t, "carol", entries[2].Username)
	assert.Equal(t, 3, entries[2].Position)

	bob := userNamed(t, db, "bob")
	bob.Points = 2000
	require.NoError(t, board.Record(ctx, bob))

	// A stale write must not lower the stored score.
	stale := bob
	stale.Points = 50
	stale.Rank = models.RankNovice
	require.NoError(t, board.Record(ctx, stale))

	entries, err = board.Top(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, bob.ID, entries[0].UserID)
	assert.Equal(t, 2000, entries[0].Points)
	assert.Equal(t, models.RankFor(2000), entries[0].Rank)
	assert.Equal(t, models.RankFor(2000).Title(), entries[0].Title)
}

func TestRedis_RewarmsAfterFlush(t *testing.T) {
	db := setupDB(t)
	seed(t, db)
	mr, board := setupRedis(t, db)
	ctx := context.Background()

	require.NoError(t, board.Warm(ctx))
	mr.FlushAll()

	// Only carol submits after the flush.
	carol := userNamed(t, db, "carol")
	require.NoError(t, db.Model(&carol).Update("points", 130).Error)
	carol.Points = 130
	require.NoError(t, board.Record(ctx, carol))

	entries, err := board.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "dave", entries[0].Username)
	assert.Equal(t, "carol", entries[1].Username)
	assert.Equal(t, 130, entries[1].Points)
	assert.Equal(t, "alice", entries[2].Username)
	assert.True(t, mr.Exists(keyWarm))
}

func TestRedis_EmptyDatabase(t *testing.T) {
	db := setupDB(t)
	_, board := setupRedis(t, db)

	entries, err := board.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
