package service

import (
	"codequiz/internal/model"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// resolveTimeout bounds the resolution attempt made when a run ends
const resolveTimeout = 30 * time.Second

// errGameEnded cancels the runs of a game that has already been resolved
var errGameEnded = errors.New("game already resolved")

type quizRun struct {
	answers chan Answer
	cancel  context.CancelCauseFunc
	done    chan struct{}
}

// QuizService keeps the quiz runs of connected players and hands their
// answers to the right runner
type QuizService struct {
	store       *GameSessionStore
	resolver    *GameResolver
	broadcaster Broadcaster

	mu   sync.Mutex
	runs map[string]*quizRun

	second time.Duration
}

// NewQuizService creates a new quiz service
func NewQuizService(store *GameSessionStore, resolver *GameResolver, broadcaster Broadcaster) *QuizService {
	s := &QuizService{
		store:       store,
		resolver:    resolver,
		broadcaster: broadcaster,
		runs:        make(map[string]*quizRun),
		second:      time.Second,
	}
	resolver.OnResolved(s.EndGame)
	return s
}

func runKey(gameID, uid string) string {
	return gameID + "/" + uid
}

// Start begins user's quiz run in a started game. Starting a run that is
// already going is a no-op.
func (s *QuizService) Start(ctx context.Context, gameID string, user model.User) error {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	seat := model.ResolveSeat(&game.Lobby, user.UID)
	if seat == model.SeatNone {
		return fmt.Errorf("user %s in game %s: %w", user.UID, gameID, model.ErrIllegalParticipant)
	}
	if !game.GameInProgress {
		return fmt.Errorf("game %s has not started: %w", gameID, model.ErrValidation)
	}
	if game.Lobby.Finished(seat) || game.Lobby.Left(seat) {
		return fmt.Errorf("user %s is done with game %s: %w", user.UID, gameID, model.ErrValidation)
	}

	key := runKey(gameID, user.UID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[key]; ok {
		return nil
	}

	// The run outlives the request that started it
	runCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	run := &quizRun{
		answers: make(chan Answer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	s.runs[key] = run

	runner := NewQuizRunner(s.store, game, user)
	runner.second = s.second
	runner.OnQuestion = func(push QuestionPush) {
		s.broadcaster.BroadcastToPlayer(gameID, user.UID, MsgQuestion, push)
	}

	go s.drive(runCtx, key, run, runner, gameID, user)
	log.Printf("Quiz run started for %s in game %s", user.UID, gameID)
	return nil
}

func (s *QuizService) drive(ctx context.Context, key string, run *quizRun, runner *QuizRunner, gameID string, user model.User) {
	defer close(run.done)
	defer run.cancel(nil)

	result, err := runner.Run(ctx, run.answers)

	s.mu.Lock()
	delete(s.runs, key)
	s.mu.Unlock()

	if errors.Is(err, errGameEnded) {
		log.Printf("Quiz run for %s stopped, game %s is over", user.UID, gameID)
		return
	}
	if err != nil {
		log.Printf("Quiz run for %s in game %s ended: %v", user.UID, gameID, err)
	} else {
		s.broadcaster.BroadcastToPlayer(gameID, user.UID, MsgQuizFinished, result)
	}

	resolveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), resolveTimeout)
	defer cancel()
	if _, err := s.resolver.TryResolve(resolveCtx, gameID); err != nil {
		log.Printf("Error resolving game %s: %v", gameID, err)
	}
}

// Answer hands user's pick to the running quiz
func (s *QuizService) Answer(ctx context.Context, gameID string, user model.User, answer Answer) error {
	s.mu.Lock()
	run, ok := s.runs[runKey(gameID, user.UID)]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no quiz running for %s in game %s: %w", user.UID, gameID, model.ErrValidation)
	}

	select {
	case run.answers <- answer:
		return nil
	case <-run.done:
		return fmt.Errorf("quiz for %s in game %s already ended: %w", user.UID, gameID, model.ErrValidation)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave ends user's participation before finishing. A running quiz is
// cancelled, which marks the seat as left; otherwise the flag is written
// directly. Leaving after finishing changes nothing.
func (s *QuizService) Leave(ctx context.Context, gameID string, user model.User) error {
	s.mu.Lock()
	run, ok := s.runs[runKey(gameID, user.UID)]
	s.mu.Unlock()
	if ok {
		run.cancel(nil)
		select {
		case <-run.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	seat := model.ResolveSeat(&game.Lobby, user.UID)
	if seat == model.SeatNone {
		return fmt.Errorf("user %s in game %s: %w", user.UID, gameID, model.ErrIllegalParticipant)
	}
	if !game.GameInProgress {
		return fmt.Errorf("game %s has not started, leave the lobby instead: %w", gameID, model.ErrValidation)
	}
	if game.Lobby.Finished(seat) {
		return nil
	}
	if err := s.store.SetUserLeftGame(ctx, game, user, true); err != nil {
		return err
	}
	if _, err := s.resolver.TryResolve(ctx, gameID); err != nil {
		log.Printf("Error resolving game %s: %v", gameID, err)
	}
	return nil
}

// EndGame stops every run still going in gameID without touching the
// record. The resolver calls it once the game has been finalized.
func (s *QuizService) EndGame(gameID string) {
	prefix := runKey(gameID, "")
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, run := range s.runs {
		if strings.HasPrefix(key, prefix) {
			run.cancel(errGameEnded)
		}
	}
}

// Running reports whether user has a quiz run in progress
func (s *QuizService) Running(gameID, uid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runs[runKey(gameID, uid)]
	return ok
}

// Shutdown cancels every run and waits for them to stop or ctx to end
func (s *QuizService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	runs := make([]*quizRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	s.mu.Unlock()

	for _, run := range runs {
		run.cancel(nil)
	}
	for _, run := range runs {
		select {
		case <-run.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
