// Package cache mirrors leaderboard standings into Redis so that other
// processes can read them without going through the engine.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/walkbuddy/walkbuddy/internal/domain"
)

// DefaultPrefix namespaces every key written by the cache.
const DefaultPrefix = "walkbuddy"

// RedisCache is a Redis-backed key/value store and leaderboard mirror.
type RedisCache struct {
	conn   *redis.Client
	prefix string
}

var _ domain.LeaderboardPublisher = (*RedisCache)(nil)

// NewRedisCache connects to the Redis server at url (redis://host:port/db)
// and checks that it answers.
func NewRedisCache(ctx context.Context, url, prefix string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisCache{conn: client, prefix: prefix}, nil
}

// Close closes the connection pool.
func (rc *RedisCache) Close() error { return rc.conn.Close() }

// ─── Key/Value ──────────────────────────────────────────────────────────────

// Set stores a value in the cache.
func (rc *RedisCache) Set(ctx context.Context, key string, value any) error {
	return rc.conn.Set(ctx, rc.key(key), value, 0).Err()
}

// Get retrieves a value from the cache. A missing key yields "".
func (rc *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := rc.conn.Get(ctx, rc.key(key)).Result()
	if err == nil || errors.Is(err, redis.Nil) {
		return value, nil
	}
	return "", err
}

// GetJSON retrieves a JSON string and unmarshals it into value. A missing
// key leaves value untouched and reports found=false.
func (rc *RedisCache) GetJSON(ctx context.Context, key string, value any) (bool, error) {
	s, err := rc.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if s == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(s), value); err != nil {
		return false, fmt.Errorf("unmarshaling cached JSON for %q: %w", key, err)
	}
	return true, nil
}

func (rc *RedisCache) key(k string) string { return rc.prefix + ":" + k }

// ─── Leaderboard Mirror ─────────────────────────────────────────────────────
// Each board is kept twice: a sorted set of id → points for range queries,
// and the ranked rows as JSON for display.

func scoresKey(kind domain.LeaderboardType) string { return "leaderboard:" + string(kind) + ":scores" }
func rowsKey(kind domain.LeaderboardType) string   { return "leaderboard:" + string(kind) + ":rows" }
func updatedKey(kind domain.LeaderboardType) string {
	return "leaderboard:" + string(kind) + ":updated_at"
}

// PublishStandings replaces the mirrored board atomically.
func (rc *RedisCache) PublishStandings(ctx context.Context, kind domain.LeaderboardType, entries []domain.LeaderboardEntry) error {
	rows, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling standings: %w", err)
	}
	members := make([]*redis.Z, 0, len(entries))
	for _, e := range entries {
		members = append(members, &redis.Z{Score: float64(e.Points), Member: e.ID})
	}

	_, err = rc.conn.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, rc.key(scoresKey(kind)))
		if len(members) > 0 {
			p.ZAdd(ctx, rc.key(scoresKey(kind)), members...)
		}
		p.Set(ctx, rc.key(rowsKey(kind)), string(rows), 0)
		p.Set(ctx, rc.key(updatedKey(kind)), time.Now().UTC().Format(time.RFC3339), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publishing %s standings: %w", kind, err)
	}
	return nil
}

// Top returns up to n mirrored rows. A limit of zero or less returns all.
func (rc *RedisCache) Top(ctx context.Context, kind domain.LeaderboardType, n int) ([]domain.LeaderboardEntry, error) {
	var rows []domain.LeaderboardEntry
	if _, err := rc.GetJSON(ctx, rowsKey(kind), &rows); err != nil {
		return nil, err
	}
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

// Score returns an id's mirrored points and whether it is on the board.
func (rc *RedisCache) Score(ctx context.Context, kind domain.LeaderboardType, id string) (int64, bool, error) {
	v, err := rc.conn.ZScore(ctx, rc.key(scoresKey(kind)), id).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return int64(v), true, nil
}

// Position returns an id's zero-based position by descending points.
func (rc *RedisCache) Position(ctx context.Context, kind domain.LeaderboardType, id string) (int64, bool, error) {
	pos, err := rc.conn.ZRevRank(ctx, rc.key(scoresKey(kind)), id).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return pos, true, nil
}
