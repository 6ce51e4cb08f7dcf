package service

import (
	"codequiz/internal/config"
	"codequiz/internal/model"
	"context"
	"fmt"
	"log"
	"strings"
)

// LobbyCoordinator runs the two-party rendezvous before a quiz starts
type LobbyCoordinator struct {
	store    *GameSessionStore
	defaults config.GameDefaults
}

// NewLobbyCoordinator creates a new lobby coordinator
func NewLobbyCoordinator(store *GameSessionStore, defaults config.GameDefaults) *LobbyCoordinator {
	return &LobbyCoordinator{
		store:    store,
		defaults: defaults,
	}
}

// CreateGame opens a lobby owned by founder. Zero quantity or duration
// falls back to the configured defaults.
func (c *LobbyCoordinator) CreateGame(ctx context.Context, founder model.User, category string, quantity, duration int) (*model.Game, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("category is required: %w", model.ErrValidation)
	}
	if quantity < 0 || duration < 0 {
		return nil, fmt.Errorf("quantity and duration must not be negative: %w", model.ErrValidation)
	}
	if quantity == 0 {
		quantity = c.defaults.QuestionQuantity
	}
	if duration == 0 {
		duration = c.defaults.QuestionDuration
	}

	gameID, err := c.store.CreateGame(ctx, category, quantity, duration, founder)
	if err != nil {
		return nil, err
	}
	return c.store.GetGame(ctx, gameID)
}

// JoinGame seats user as the member. Joining again as the same member is
// a no-op.
func (c *LobbyCoordinator) JoinGame(ctx context.Context, gameID string, user model.User) (*model.Game, error) {
	game, err := c.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	switch model.ResolveSeat(&game.Lobby, user.UID) {
	case model.SeatFounder:
		return nil, fmt.Errorf("founder cannot join own game %s: %w", gameID, model.ErrValidation)
	case model.SeatMember:
		return game, nil
	}
	if game.GameInProgress {
		return nil, fmt.Errorf("game %s already started: %w", gameID, model.ErrValidation)
	}
	if game.Lobby.IsFull() {
		return nil, fmt.Errorf("game %s is full: %w", gameID, model.ErrValidation)
	}

	if err := c.store.AddMemberToLobby(ctx, gameID, user); err != nil {
		return nil, err
	}
	log.Printf("User %s joined game %s", user.UID, gameID)
	return c.store.GetGame(ctx, gameID)
}

// SetReady toggles the readiness of user's seat. Users without a seat
// change nothing.
func (c *LobbyCoordinator) SetReady(ctx context.Context, gameID string, user model.User, ready bool) (*model.Game, error) {
	game, err := c.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.GameInProgress {
		return nil, fmt.Errorf("game %s already started: %w", gameID, model.ErrValidation)
	}
	if err := c.store.ChangeUserReadinessStatus(ctx, gameID, &game.Lobby, user, ready); err != nil {
		return nil, err
	}
	return c.store.GetGame(ctx, gameID)
}

// Start moves a both-ready lobby into the quiz. Only the founder starts.
func (c *LobbyCoordinator) Start(ctx context.Context, gameID string, user model.User) (*model.Game, error) {
	game, err := c.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if model.ResolveSeat(&game.Lobby, user.UID) != model.SeatFounder {
		return nil, fmt.Errorf("user %s may not start game %s: %w", user.UID, gameID, model.ErrIllegalParticipant)
	}
	if err := c.store.StartGame(ctx, gameID); err != nil {
		return nil, err
	}
	log.Printf("Game %s started", gameID)
	return c.store.GetGame(ctx, gameID)
}

// LeaveLobby tears the lobby down so it does not linger as a phantom
// joinable game. The founder leaving deletes it; the member leaving frees
// the seat.
func (c *LobbyCoordinator) LeaveLobby(ctx context.Context, gameID string, user model.User) error {
	game, err := c.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.GameInProgress {
		return fmt.Errorf("game %s already started, leave the quiz instead: %w", gameID, model.ErrValidation)
	}

	switch model.ResolveSeat(&game.Lobby, user.UID) {
	case model.SeatFounder:
		log.Printf("Founder %s abandoned lobby %s", user.UID, gameID)
		return c.store.DeleteLobby(ctx, gameID)
	case model.SeatMember:
		log.Printf("Member %s left lobby %s", user.UID, gameID)
		return c.store.RemoveMemberFromLobby(ctx, gameID)
	}
	return fmt.Errorf("user %s is not in game %s: %w", user.UID, gameID, model.ErrIllegalParticipant)
}

// LobbyState derives the rendezvous state of game
func (c *LobbyCoordinator) LobbyState(game *model.Game) model.LobbyState {
	return game.State()
}
