// Package leaderboard ranks users by points. The database is the source of
// truth; a Redis sorted set can front it for cheap reads.
package leaderboard

import (
	"context"

	"github.com/ratwatch/sighting-api/internal/models"
)

type Entry struct {
	Position int         `json:"position"`
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Points   int         `json:"points"`
	Rank     models.Rank `json:"rank"`
	Title    string      `json:"title"`
}

type UserSource interface {
	Top(ctx context.Context, limit int) ([]models.User, error)
}

// Board reads the top of the leaderboard and accepts updates after each
// committed submission.
type Board interface {
	Record(ctx context.Context, user models.User) error
	Top(ctx context.Context, limit int) ([]Entry, error)
}

func entryFor(position int, u models.User) Entry {
	return Entry{
		Position: position,
		UserID:   u.ID,
		Username: u.Username,
		Points:   u.Points,
		Rank:     u.Rank,
		Title:    u.Rank.Title(),
	}
}

// DB serves the leaderboard straight from the users table.
type DB struct {
	users UserSource
}

func NewDB(users UserSource) *DB {
	return &DB{users: users}
}

// Record is a no-op; the users table is already current.
func (b *DB) Record(context.Context, models.User) error { return nil }

func (b *DB) Top(ctx context.Context, limit int) ([]Entry, error) {
	users, err := b.users.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(users))
	for i, u := range users {
		entries = append(entries, entryFor(i+1, u))
	}
	return entries, nil
}
