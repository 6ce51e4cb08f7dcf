package service

import (
	"codequiz/internal/cache"
	"codequiz/internal/model"
	"context"
	"fmt"
	"sync"
)

// Watch is a live view of a value backed by a change subscription. The
// current value is read once when the watch opens and again after every
// change. Only the latest unread value is kept.
//
// Callers must Close the watch on every path.
type Watch[T any] struct {
	updates chan T
	done    chan struct{}
	err     error

	sub       cache.Subscription
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// Updates delivers the latest value. It is closed when the watch ends.
func (w *Watch[T]) Updates() <-chan T {
	return w.updates
}

// Done is closed once the watch has stopped
func (w *Watch[T]) Done() <-chan struct{} {
	return w.done
}

// Err reports why the watch ended. It is only meaningful after Done.
// model.ErrNotFound means the record was removed.
func (w *Watch[T]) Err() error {
	select {
	case <-w.done:
		return w.err
	default:
		return nil
	}
}

// Close tears down the subscription and waits for the watch to stop
func (w *Watch[T]) Close() error {
	var err error
	w.closeOnce.Do(func() {
		w.cancel()
		err = w.sub.Close()
	})
	<-w.done
	return err
}

// observe opens a subscription, performs the initial read and keeps
// re-reading on every change until ctx ends, Close is called or a read
// fails
func observe[T any](
	ctx context.Context,
	subscribe func(ctx context.Context) (cache.Subscription, error),
	read func(ctx context.Context) (T, error),
) (*Watch[T], error) {
	// Subscribe before reading so a write landing in between is not lost
	sub, err := subscribe(ctx)
	if err != nil {
		return nil, storageErr("subscribe", err)
	}

	initial, err := read(ctx)
	if err != nil {
		sub.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	w := &Watch[T]{
		updates: make(chan T, 1),
		done:    make(chan struct{}),
		sub:     sub,
		cancel:  cancel,
	}
	w.updates <- initial

	go w.loop(ctx, read)
	return w, nil
}

func (w *Watch[T]) loop(ctx context.Context, read func(ctx context.Context) (T, error)) {
	defer close(w.done)
	defer close(w.updates)
	defer w.cancel()

	for {
		select {
		case <-ctx.Done():
			w.err = ctx.Err()
			return
		case _, ok := <-w.sub.Changes():
			if !ok {
				if ctx.Err() != nil {
					w.err = ctx.Err()
				} else {
					w.err = fmt.Errorf("change feed closed: %w", model.ErrStorage)
				}
				return
			}
			value, err := read(ctx)
			if err != nil {
				if ctx.Err() != nil {
					err = ctx.Err()
				}
				w.err = err
				return
			}
			w.offer(value)
		}
	}
}

// offer replaces an unread value with v. The loop is the only sender.
func (w *Watch[T]) offer(v T) {
	select {
	case w.updates <- v:
		return
	default:
	}
	select {
	case <-w.updates:
	default:
	}
	w.updates <- v
}

// GameSessionWatcher produces live views of game records
type GameSessionWatcher struct {
	store *GameSessionStore
}

// NewGameSessionWatcher creates a watcher reading through store
func NewGameSessionWatcher(store *GameSessionStore) *GameSessionWatcher {
	return &GameSessionWatcher{
		store: store,
	}
}

// Observe watches one game. It fails with model.ErrNotFound when the game
// does not exist and ends the same way once the game is deleted.
func (w *GameSessionWatcher) Observe(ctx context.Context, gameID string) (*Watch[*model.Game], error) {
	return observe(ctx,
		func(ctx context.Context) (cache.Subscription, error) {
			return w.store.feed.SubscribeGame(ctx, gameID)
		},
		func(ctx context.Context) (*model.Game, error) {
			return w.store.GetGame(ctx, gameID)
		},
	)
}

// ObserveList watches the joinable games
func (w *GameSessionWatcher) ObserveList(ctx context.Context) (*Watch[[]*model.Game], error) {
	return w.store.GetGamesList(ctx)
}
