package service

import (
	"codequiz/internal/cache"
	"codequiz/internal/model"
	"codequiz/internal/repository"
	"context"
	"log"
)

// UserStatsService keeps per-user aggregates and the leaderboard
type UserStatsService struct {
	users       repository.UserRepo
	archive     repository.ArchiveRepo
	leaderboard cache.LeaderboardCache
}

// NewUserStatsService creates a new user stats service
func NewUserStatsService(users repository.UserRepo, archive repository.ArchiveRepo, leaderboard cache.LeaderboardCache) *UserStatsService {
	return &UserStatsService{
		users:       users,
		archive:     archive,
		leaderboard: leaderboard,
	}
}

// UpdateUserData adds one game to the user's aggregate and refreshes the
// leaderboard entry
func (s *UserStatsService) UpdateUserData(ctx context.Context, user model.User, scoreDelta int, won bool) error {
	stats, err := s.users.ApplyGameResult(ctx, &user, scoreDelta, won)
	if err != nil {
		return storageErr("apply game result", err)
	}

	// The leaderboard mirrors the stats document and may lag behind it
	if err := s.leaderboard.SetScore(ctx, stats.UID, stats.DisplayName, stats.TotalPoints); err != nil {
		log.Printf("Warning: updating leaderboard for %s: %v", stats.UID, err)
	}
	return nil
}

// GetStats returns the aggregate of uid
func (s *UserStatsService) GetStats(ctx context.Context, uid string) (*model.UserStats, error) {
	stats, err := s.users.GetByUID(ctx, uid)
	if err != nil {
		return nil, storageErr("get user stats", err)
	}
	return stats, nil
}

// GetLeaderboard returns the top players by total points
func (s *UserStatsService) GetLeaderboard(ctx context.Context, limit int) ([]cache.LeaderboardEntry, error) {
	entries, err := s.leaderboard.GetTop(ctx, limit)
	if err != nil {
		return nil, storageErr("get leaderboard", err)
	}
	return entries, nil
}

// GetRank returns the 1-based rank of uid, or -1 when unranked
func (s *UserStatsService) GetRank(ctx context.Context, uid string) (int64, error) {
	rank, err := s.leaderboard.GetRank(ctx, uid)
	if err != nil {
		return 0, storageErr("get rank", err)
	}
	return rank, nil
}

// History returns the most recent resolved games uid played
func (s *UserStatsService) History(ctx context.Context, uid string, limit int64) ([]*model.ArchivedGame, error) {
	games, err := s.archive.ListByUser(ctx, uid, limit)
	if err != nil {
		return nil, storageErr("list history", err)
	}
	return games, nil
}
