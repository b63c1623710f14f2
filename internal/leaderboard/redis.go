package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	keyPoints = "leaderboard:points"
	keyInfo   = "leaderboard:info"
	keyWarm   = "leaderboard:warm"
)

// WarmSize is how many users are loaded from the database into an empty
// sorted set. Reads never ask for more.
const WarmSize = 100

// idSpan packs the user id into the low part of the score so that equal
// points order by id ascending, the same as the users table.
const idSpan = 1 << 24

// Redis keeps a sorted set of user points plus a hash of display data.
// The set is loaded from the database whenever its warm marker is missing.
// Reads fall back to the database when Redis fails.
type Redis struct {
	client   *redis.Client
	users    UserSource
	fallback Board
	log      *logger.Logger
}

func NewRedis(client *redis.Client, users UserSource, baseLog *logger.Logger) *Redis {
	return &Redis{
		client:   client,
		users:    users,
		fallback: NewDB(users),
		log:      logger.OrNop(baseLog).With("component", "leaderboard"),
	}
}

func score(user models.User) float64 {
	return float64(user.Points)*idSpan + float64(idSpan-1-int64(user.ID)%idSpan)
}

func pointsOf(score float64) int {
	return int(math.Floor(score / idSpan))
}

func member(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Record stores the user's committed state. Points only grow, so a stale
// write never lowers a member that is already ahead.
func (b *Redis) Record(ctx context.Context, user models.User) error {
	data, err := json.Marshal(entryFor(0, user))
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	pipe := b.client.TxPipeline()
	pipe.ZAddGT(ctx, keyPoints, redis.Z{Score: score(user), Member: member(user.ID)})
	pipe.HSet(ctx, keyInfo, member(user.ID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record leaderboard entry: %w", err)
	}
	return nil
}

// Warm loads the top users from the database and sets the warm marker.
// Members recorded meanwhile keep their higher score.
func (b *Redis) Warm(ctx context.Context) error {
	users, err := b.users.Top(ctx, WarmSize)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	pipe := b.client.TxPipeline()
	if len(users) > 0 {
		zs := make([]redis.Z, 0, len(users))
		info := make([]any, 0, 2*len(users))
		for _, u := range users {
			data, err := json.Marshal(entryFor(0, u))
			if err != nil {
				return fmt.Errorf("failed to marshal entry: %w", err)
			}
			zs = append(zs, redis.Z{Score: score(u), Member: member(u.ID)})
			info = append(info, member(u.ID), data)
		}
		pipe.ZAddGT(ctx, keyPoints, zs...)
		pipe.HSet(ctx, keyInfo, info...)
	}
	pipe.Set(ctx, keyWarm, len(users), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to warm leaderboard: %w", err)
	}
	b.log.Info("leaderboard warmed", "users", len(users))
	return nil
}

func (b *Redis) Top(ctx context.Context, limit int) ([]Entry, error) {
	entries, err := b.top(ctx, limit)
	if err != nil {
		b.log.Warn("redis leaderboard unavailable, using database", "error", err)
		return b.fallback.Top(ctx, limit)
	}
	return entries, nil
}

func (b *Redis) top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	if limit > WarmSize {
		return nil, fmt.Errorf("limit %d exceeds cached size %d", limit, WarmSize)
	}

	warm, err := b.client.Exists(ctx, keyWarm).Result()
	if err != nil {
		return nil, err
	}
	if warm == 0 {
		if err := b.Warm(ctx); err != nil {
			return nil, err
		}
	}

	scores, err := b.client.ZRevRangeWithScores(ctx, keyPoints, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return []Entry{}, nil
	}

	members := make([]string, 0, len(scores))
	for _, z := range scores {
		members = append(members, z.Member.(string))
	}
	infos, err := b.client.HMGet(ctx, keyInfo, members...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(scores))
	for i, z := range scores {
		var e Entry
		if raw, ok := infos[i].(string); ok {
			if err := json.Unmarshal([]byte(raw), &e); err != nil {
				return nil, fmt.Errorf("corrupt leaderboard entry %s: %w", members[i], err)
			}
		} else {
			id, err := strconv.ParseUint(members[i], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("corrupt leaderboard member %q: %w", members[i], err)
			}
			e.UserID = uint(id)
		}
		e.Position = i + 1
		e.Points = pointsOf(z.Score)
		e.Rank = models.RankFor(e.Points)
		e.Title = e.Rank.Title()
		entries = append(entries, e)
	}
	return entries, nil
}
