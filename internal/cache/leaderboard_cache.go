package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache handles Redis ZSET operations for the global leaderboard
type LeaderboardCache interface {
	SetScore(ctx context.Context, uid, displayName string, totalPoints int) error
	GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	GetRank(ctx context.Context, uid string) (int64, error)
}

// LeaderboardEntry represents a single leaderboard entry
type LeaderboardEntry struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Rank        int    `json:"rank"`
}

type leaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) LeaderboardCache {
	return &leaderboardCache{
		client: client,
	}
}

func (c *leaderboardCache) key() string {
	return "leaderboard:points"
}

func (c *leaderboardCache) namesKey() string {
	return "leaderboard:names"
}

// SetScore stores the user's total points; the ZSET holds the absolute value
func (c *leaderboardCache) SetScore(ctx context.Context, uid, displayName string, totalPoints int) error {
	pipe := c.client.TxPipeline()
	pipe.ZAdd(ctx, c.key(), redis.Z{
		Score:  float64(totalPoints),
		Member: uid,
	})
	pipe.HSet(ctx, c.namesKey(), uid, displayName)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *leaderboardCache) GetTop(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	results, err := c.client.ZRevRangeWithScores(ctx, c.key(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, len(results))
	if len(results) == 0 {
		return entries, nil
	}

	uids := make([]string, len(results))
	for i, z := range results {
		uids[i] = z.Member.(string)
	}
	names, err := c.client.HMGet(ctx, c.namesKey(), uids...).Result()
	if err != nil {
		return nil, err
	}

	for i, z := range results {
		name, _ := names[i].(string)
		entries[i] = LeaderboardEntry{
			UID:         uids[i],
			DisplayName: name,
			Score:       int(z.Score),
			Rank:        i + 1,
		}
	}
	return entries, nil
}

func (c *leaderboardCache) GetRank(ctx context.Context, uid string) (int64, error) {
	rank, err := c.client.ZRevRank(ctx, c.key(), uid).Result()
	if err == redis.Nil {
		return -1, nil
	}
	return rank + 1, err // 1-indexed
}
