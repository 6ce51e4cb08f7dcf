package service

import (
	"codequiz/internal/cache"
	"codequiz/internal/model"
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"
)

// UserStatsUpdater applies one resolved game to a player's aggregate stats
type UserStatsUpdater interface {
	UpdateUserData(ctx context.Context, user model.User, scoreDelta int, won bool) error
}

// GameResolver decides the outcome of a game and finalizes it once
type GameResolver struct {
	store       *GameSessionStore
	lock        cache.ResolveLock
	stats       UserStatsUpdater
	broadcaster Broadcaster

	onResolved []func(gameID string)
}

// NewGameResolver creates a new game resolver
func NewGameResolver(store *GameSessionStore, lock cache.ResolveLock, stats UserStatsUpdater, broadcaster Broadcaster) *GameResolver {
	return &GameResolver{
		store:       store,
		lock:        lock,
		stats:       stats,
		broadcaster: broadcaster,
	}
}

// OnResolved registers fn to run after a game has been finalized.
// Register before the resolver is in use.
func (r *GameResolver) OnResolved(fn func(gameID string)) {
	r.onResolved = append(r.onResolved, fn)
}

// abandoned reports a seat that left without finishing
func abandoned(lobby *model.Lobby, seat model.Seat) bool {
	return lobby.Left(seat) && !lobby.Finished(seat)
}

// Triggered reports whether the record carries enough terminal signals to
// decide the game: both seats finished, or a seat left early.
func Triggered(game *model.Game) bool {
	l := &game.Lobby
	if l.Founder == nil || l.Member == nil {
		return false
	}
	if l.HasFounderFinishedGame && l.HasMemberFinishedGame {
		return true
	}
	return abandoned(l, model.SeatFounder) || abandoned(l, model.SeatMember)
}

// Classify returns the outcome of game as seen by viewerUID. The bool is
// false while the game is still undecided.
func Classify(game *model.Game, viewerUID string) (*model.GameResult, bool, error) {
	l := &game.Lobby
	viewer := model.ResolveSeat(l, viewerUID)
	if viewer == model.SeatNone {
		return nil, false, fmt.Errorf("user %s in game %s: %w", viewerUID, game.ID, model.ErrIllegalParticipant)
	}
	if !Triggered(game) {
		return nil, false, nil
	}

	result := &model.GameResult{
		CorrectAnswers: l.CorrectAnswers(viewer),
		TotalQuestions: len(game.Questions),
	}

	founderGone := abandoned(l, model.SeatFounder)
	memberGone := abandoned(l, model.SeatMember)

	var winner model.Seat
	switch {
	case founderGone && !memberGone:
		winner = model.SeatMember
		result.Forfeit = true
	case memberGone && !founderGone:
		winner = model.SeatFounder
		result.Forfeit = true
	case l.FounderPoints > l.MemberPoints:
		winner = model.SeatFounder
	case l.MemberPoints > l.FounderPoints:
		winner = model.SeatMember
	default:
		result.Outcome = model.OutcomeTie
		result.First = l.Founder
		result.Second = l.Member
		result.FirstPoints = l.FounderPoints
		result.SecondPoints = l.MemberPoints
		return result, true, nil
	}

	loser := winner.Other()
	result.Outcome = model.OutcomeLose
	if viewer == winner {
		result.Outcome = model.OutcomeWin
	}
	result.Winner = l.User(winner)
	result.Loser = l.User(loser)
	result.WinnerPoints = l.Points(winner)
	result.LoserPoints = l.Points(loser)
	return result, true, nil
}

// TryResolve finalizes the game if it is decided. Both players call it
// when their run ends; the resolve lock lets only the first one through.
// It reports whether this call did the finalization.
func (r *GameResolver) TryResolve(ctx context.Context, gameID string) (bool, error) {
	game, err := r.store.GetGame(ctx, gameID)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !Triggered(game) {
		return false, nil
	}

	acquired, err := r.lock.Acquire(ctx, gameID)
	if err != nil {
		return false, storageErr("acquire resolve lock", err)
	}
	if !acquired {
		return false, nil
	}

	// Re-read under the lock so the final writes of both seats are seen
	game, err = r.store.GetGame(ctx, gameID)
	if err != nil {
		if releaseErr := r.lock.Release(ctx, gameID); releaseErr != nil {
			log.Printf("Warning: releasing resolve lock for %s: %v", gameID, releaseErr)
		}
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	r.finalize(ctx, game)
	return true, nil
}

// finalize archives and deletes the record, then updates both players'
// stats. Archive or delete failures are logged and do not block stats.
func (r *GameResolver) finalize(ctx context.Context, game *model.Game) {
	if err := r.store.ArchiveGame(ctx, game); err != nil {
		log.Printf("Error archiving game %s: %v", game.ID, err)
	} else if err := r.store.DeleteGame(ctx, game); err != nil {
		log.Printf("Error deleting game %s: %v", game.ID, err)
	}

	var g errgroup.Group
	for _, seat := range []model.Seat{model.SeatFounder, model.SeatMember} {
		user := game.Lobby.User(seat)
		if user == nil {
			continue
		}
		result, _, err := Classify(game, user.UID)
		if err != nil {
			log.Printf("Error classifying game %s for %s: %v", game.ID, user.UID, err)
			continue
		}
		r.broadcaster.BroadcastToPlayer(game.ID, user.UID, MsgGameResolved, result)

		u := *user
		points := game.Lobby.Points(seat)
		won := result.Outcome == model.OutcomeWin
		g.Go(func() error {
			if err := r.stats.UpdateUserData(ctx, u, points, won); err != nil {
				log.Printf("Error updating stats of %s after game %s: %v", u.UID, game.ID, err)
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Printf("Game %s resolved", game.ID)
	for _, fn := range r.onResolved {
		fn(game.ID)
	}
}

// Outcome classifies the game for viewerUID, reading the archive once the
// live record is gone
func (r *GameResolver) Outcome(ctx context.Context, gameID, viewerUID string) (*model.GameResult, error) {
	game, err := r.store.GetGame(ctx, gameID)
	if errors.Is(err, model.ErrNotFound) {
		archived, archErr := r.store.GetArchivedGame(ctx, gameID)
		if archErr != nil {
			return nil, archErr
		}
		game = &archived.Game
	} else if err != nil {
		return nil, err
	}

	result, decided, err := Classify(game, viewerUID)
	if err != nil {
		return nil, err
	}
	if !decided {
		return nil, fmt.Errorf("game %s is not decided yet: %w", gameID, model.ErrValidation)
	}
	return result, nil
}
