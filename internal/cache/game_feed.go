package cache

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// GameFeed publishes and subscribes to game change notifications.
// Notifications carry no payload; subscribers re-read the record.
type GameFeed interface {
	NotifyGame(ctx context.Context, gameID string) error
	NotifyList(ctx context.Context) error
	SubscribeGame(ctx context.Context, gameID string) (Subscription, error)
	SubscribeList(ctx context.Context) (Subscription, error)
}

// Subscription delivers a signal per observed change. Changes is closed
// when the underlying channel goes away, either by Close or by failure.
type Subscription interface {
	Changes() <-chan struct{}
	Close() error
}

type gameFeed struct {
	client *redis.Client
}

// NewGameFeed creates a Redis pub/sub backed feed
func NewGameFeed(client *redis.Client) GameFeed {
	return &gameFeed{
		client: client,
	}
}

// Key helpers
func (c *gameFeed) gameChannel(gameID string) string {
	return fmt.Sprintf("game:%s:changes", gameID)
}

func (c *gameFeed) listChannel() string {
	return "games:changes"
}

func (c *gameFeed) NotifyGame(ctx context.Context, gameID string) error {
	return c.client.Publish(ctx, c.gameChannel(gameID), gameID).Err()
}

func (c *gameFeed) NotifyList(ctx context.Context) error {
	return c.client.Publish(ctx, c.listChannel(), "changed").Err()
}

func (c *gameFeed) SubscribeGame(ctx context.Context, gameID string) (Subscription, error) {
	return c.subscribe(ctx, c.gameChannel(gameID))
}

func (c *gameFeed) SubscribeList(ctx context.Context) (Subscription, error) {
	return c.subscribe(ctx, c.listChannel())
}

func (c *gameFeed) subscribe(ctx context.Context, channel string) (Subscription, error) {
	pubsub := c.client.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so no publish after this call is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	sub := &redisSubscription{
		pubsub:  pubsub,
		changes: make(chan struct{}, 1),
	}
	go sub.forward(pubsub.Channel())
	return sub, nil
}

type redisSubscription struct {
	pubsub  *redis.PubSub
	changes chan struct{}
}

func (s *redisSubscription) forward(messages <-chan *redis.Message) {
	defer close(s.changes)
	for range messages {
		select {
		case s.changes <- struct{}{}:
		default:
			// A signal is already pending; the reader will re-read anyway
		}
	}
}

func (s *redisSubscription) Changes() <-chan struct{} {
	return s.changes
}

func (s *redisSubscription) Close() error {
	if err := s.pubsub.Close(); err != nil {
		log.Printf("Warning: closing pubsub: %v", err)
		return err
	}
	return nil
}
