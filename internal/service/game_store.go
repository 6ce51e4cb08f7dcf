package service

import (
	"codequiz/internal/cache"
	"codequiz/internal/model"
	"codequiz/internal/repository"
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// seatFields are the record paths only the seat's owner writes
type seatFields struct {
	ready    string
	points   string
	answers  string
	correct  string
	finished string
	left     string
}

var seatPaths = map[model.Seat]seatFields{
	model.SeatFounder: {
		ready:    "lobby.isFounderReady",
		points:   "lobby.founderPoints",
		answers:  "lobby.founderAnswersList",
		correct:  "lobby.founderCorrectAnswersQuantity",
		finished: "lobby.hasFounderFinishedGame",
		left:     "lobby.hasFounderLeftGame",
	},
	model.SeatMember: {
		ready:    "lobby.isMemberReady",
		points:   "lobby.memberPoints",
		answers:  "lobby.memberAnswersList",
		correct:  "lobby.memberCorrectAnswersQuantity",
		finished: "lobby.hasMemberFinishedGame",
		left:     "lobby.hasMemberLeftGame",
	},
}

// GameSessionStore is the only writer of game records. Each mutation is a
// single field-group write followed by a change notification.
type GameSessionStore struct {
	games     repository.GameRepo
	questions repository.QuestionRepo
	archive   repository.ArchiveRepo
	feed      cache.GameFeed

	newID   func() (string, error)
	shuffle func(n int, swap func(i, j int))
	now     func() time.Time
}

// NewGameSessionStore creates a new game session store
func NewGameSessionStore(
	games repository.GameRepo,
	questions repository.QuestionRepo,
	archive repository.ArchiveRepo,
	feed cache.GameFeed,
) *GameSessionStore {
	return &GameSessionStore{
		games:     games,
		questions: questions,
		archive:   archive,
		feed:      feed,
		newID:     newGameID,
		shuffle:   rand.Shuffle,
		now:       time.Now,
	}
}

func newGameID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CreateGame draws up to quantity random questions of category and writes a
// fresh lobby owned by founder. A short pool yields a shorter game.
func (s *GameSessionStore) CreateGame(ctx context.Context, category string, quantity, duration int, founder model.User) (string, error) {
	if quantity <= 0 {
		return "", fmt.Errorf("question quantity %d: %w", quantity, model.ErrValidation)
	}
	if duration <= 0 {
		return "", fmt.Errorf("question duration %d: %w", duration, model.ErrValidation)
	}

	pool, err := s.questions.GetByCategory(ctx, category)
	if err != nil {
		return "", storageErr("fetch question pool", err)
	}
	if len(pool) == 0 {
		return "", fmt.Errorf("category %q has no questions: %w", category, model.ErrValidation)
	}

	s.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > quantity {
		pool = pool[:quantity]
	}

	id, err := s.newID()
	if err != nil {
		return "", storageErr("generate game id", err)
	}

	f := founder
	game := &model.Game{
		ID:               id,
		GameInProgress:   false,
		Category:         category,
		Questions:        pool,
		QuestionDuration: duration,
		Lobby: model.Lobby{
			Founder:            &f,
			FounderAnswersList: []int{},
			MemberAnswersList:  []int{},
		},
		CreatedAt: s.now(),
	}
	if err := s.games.Create(ctx, game); err != nil {
		return "", storageErr("create game", err)
	}
	s.notify(ctx, id)

	log.Printf("Game %s created by %s (%s, %d questions)", id, founder.UID, category, len(pool))
	return id, nil
}

// GetGame reads the current record
func (s *GameSessionStore) GetGame(ctx context.Context, gameID string) (*model.Game, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, storageErr("get game", err)
	}
	return game, nil
}

// StartGame flips gameInProgress. Both seats must be taken and ready.
func (s *GameSessionStore) StartGame(ctx context.Context, gameID string) error {
	game, err := s.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.GameInProgress {
		return nil
	}
	if game.State() != model.LobbyBothReady {
		return fmt.Errorf("game %s is %s, both players must be ready: %w", gameID, game.State(), model.ErrValidation)
	}
	return s.update(ctx, "start game", gameID, bson.M{"gameInProgress": true})
}

func (s *GameSessionStore) AddMemberToLobby(ctx context.Context, gameID string, user model.User) error {
	return s.update(ctx, "add member", gameID, bson.M{
		"lobby.member":        user,
		"lobby.isMemberReady": false,
	})
}

func (s *GameSessionStore) RemoveMemberFromLobby(ctx context.Context, gameID string) error {
	return s.update(ctx, "remove member", gameID, bson.M{
		"lobby.member":        nil,
		"lobby.isMemberReady": false,
	})
}

// ChangeUserReadinessStatus writes the ready flag of the seat user holds
func (s *GameSessionStore) ChangeUserReadinessStatus(ctx context.Context, gameID string, lobby *model.Lobby, user model.User, ready bool) error {
	fields, ok := s.seatOf(gameID, lobby, user, "change readiness")
	if !ok {
		return nil
	}
	return s.update(ctx, "change readiness", gameID, bson.M{fields.ready: ready})
}

// SaveUserGameStats writes the answers, correct tally and points of user's seat
func (s *GameSessionStore) SaveUserGameStats(ctx context.Context, gameID string, lobby *model.Lobby, user model.User, answers []int, correct, points int) error {
	fields, ok := s.seatOf(gameID, lobby, user, "save game stats")
	if !ok {
		return nil
	}
	return s.update(ctx, "save game stats", gameID, bson.M{
		fields.answers: answers,
		fields.correct: correct,
		fields.points:  points,
	})
}

func (s *GameSessionStore) SetUserFinishedGame(ctx context.Context, gameID string, lobby *model.Lobby, user model.User) error {
	fields, ok := s.seatOf(gameID, lobby, user, "set finished")
	if !ok {
		return nil
	}
	return s.update(ctx, "set finished", gameID, bson.M{fields.finished: true})
}

func (s *GameSessionStore) SetUserLeftGame(ctx context.Context, game *model.Game, user model.User, hasLeft bool) error {
	fields, ok := s.seatOf(game.ID, &game.Lobby, user, "set left")
	if !ok {
		return nil
	}
	return s.update(ctx, "set left", game.ID, bson.M{fields.left: hasLeft})
}

// DeleteLobby removes a record that never started
func (s *GameSessionStore) DeleteLobby(ctx context.Context, gameID string) error {
	if err := s.games.Delete(ctx, gameID); err != nil {
		return storageErr("delete lobby", err)
	}
	s.notify(ctx, gameID)
	return nil
}

// DeleteGame removes the live record of a resolved game
func (s *GameSessionStore) DeleteGame(ctx context.Context, game *model.Game) error {
	if err := s.games.Delete(ctx, game.ID); err != nil {
		return storageErr("delete game", err)
	}
	s.notify(ctx, game.ID)
	return nil
}

// ArchiveGame copies the record into the permanent history
func (s *GameSessionStore) ArchiveGame(ctx context.Context, game *model.Game) error {
	archived := &model.ArchivedGame{
		Game:       *game,
		ArchivedAt: s.now(),
	}
	if err := s.archive.Save(ctx, archived); err != nil {
		return storageErr("archive game", err)
	}
	return nil
}

// GetArchivedGame reads a resolved game from the history
func (s *GameSessionStore) GetArchivedGame(ctx context.Context, gameID string) (*model.ArchivedGame, error) {
	archived, err := s.archive.GetByID(ctx, gameID)
	if err != nil {
		return nil, storageErr("get archived game", err)
	}
	return archived, nil
}

// ListGames returns the joinable lobbies; started games are left out
func (s *GameSessionStore) ListGames(ctx context.Context) ([]*model.Game, error) {
	games, err := s.games.List(ctx)
	if err != nil {
		return nil, storageErr("list games", err)
	}
	open := games[:0]
	for _, g := range games {
		if !g.GameInProgress {
			open = append(open, g)
		}
	}
	return open, nil
}

// GetGamesList streams the joinable lobbies, re-read on every change
func (s *GameSessionStore) GetGamesList(ctx context.Context) (*Watch[[]*model.Game], error) {
	return observe(ctx, s.feed.SubscribeList, s.ListGames)
}

// seatOf resolves the seat user holds. A user holding no seat is ignored,
// which is the single place that policy lives.
func (s *GameSessionStore) seatOf(gameID string, lobby *model.Lobby, user model.User, op string) (seatFields, bool) {
	seat := model.ResolveSeat(lobby, user.UID)
	if seat == model.SeatNone {
		log.Printf("%s: user %s holds no seat in game %s, ignoring", op, user.UID, gameID)
		return seatFields{}, false
	}
	return seatPaths[seat], true
}

func (s *GameSessionStore) update(ctx context.Context, op, gameID string, fields bson.M) error {
	if err := s.games.UpdateFields(ctx, gameID, fields); err != nil {
		return storageErr(op, err)
	}
	s.notify(ctx, gameID)
	return nil
}

// notify publishes the change. The write already happened, so a failed
// publish is only logged; watchers catch up on the next change.
func (s *GameSessionStore) notify(ctx context.Context, gameID string) {
	if err := s.feed.NotifyGame(ctx, gameID); err != nil {
		log.Printf("Warning: notify game %s: %v", gameID, err)
	}
	if err := s.feed.NotifyList(ctx); err != nil {
		log.Printf("Warning: notify games list: %v", err)
	}
}
