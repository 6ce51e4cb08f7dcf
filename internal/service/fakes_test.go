package service

import (
	"codequiz/internal/cache"
	"codequiz/internal/model"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

var errBackend = errors.New("backend unavailable")

// fakeGameRepo keeps games in memory and applies $set paths field by field
type fakeGameRepo struct {
	mu      sync.Mutex
	games   map[string]*model.Game
	updates []bson.M
	getErr  error
	deletes int
}

func newFakeGameRepo() *fakeGameRepo {
	return &fakeGameRepo{games: make(map[string]*model.Game)}
}

func cloneGame(g *model.Game) *model.Game {
	c := *g
	c.Questions = append([]model.Question(nil), g.Questions...)
	c.Lobby.FounderAnswersList = append([]int(nil), g.Lobby.FounderAnswersList...)
	c.Lobby.MemberAnswersList = append([]int(nil), g.Lobby.MemberAnswersList...)
	if g.Lobby.Founder != nil {
		u := *g.Lobby.Founder
		c.Lobby.Founder = &u
	}
	if g.Lobby.Member != nil {
		u := *g.Lobby.Member
		c.Lobby.Member = &u
	}
	return &c
}

func (r *fakeGameRepo) Create(_ context.Context, game *model.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[game.ID] = cloneGame(game)
	return nil
}

func (r *fakeGameRepo) GetByID(_ context.Context, id string) (*model.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	g, ok := r.games[id]
	if !ok {
		return nil, fmt.Errorf("game %s: %w", id, model.ErrNotFound)
	}
	return cloneGame(g), nil
}

func (r *fakeGameRepo) UpdateFields(_ context.Context, id string, fields bson.M) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[id]
	if !ok {
		return fmt.Errorf("game %s: %w", id, model.ErrNotFound)
	}
	for path, v := range fields {
		if err := applyField(g, path, v); err != nil {
			return err
		}
	}
	r.updates = append(r.updates, fields)
	return nil
}

func applyField(g *model.Game, path string, v interface{}) error {
	l := &g.Lobby
	switch path {
	case "gameInProgress":
		g.GameInProgress = v.(bool)
	case "lobby.member":
		if v == nil {
			l.Member = nil
		} else {
			u := v.(model.User)
			l.Member = &u
		}
	case "lobby.isFounderReady":
		l.IsFounderReady = v.(bool)
	case "lobby.isMemberReady":
		l.IsMemberReady = v.(bool)
	case "lobby.founderPoints":
		l.FounderPoints = v.(int)
	case "lobby.memberPoints":
		l.MemberPoints = v.(int)
	case "lobby.founderAnswersList":
		l.FounderAnswersList = append([]int(nil), v.([]int)...)
	case "lobby.memberAnswersList":
		l.MemberAnswersList = append([]int(nil), v.([]int)...)
	case "lobby.founderCorrectAnswersQuantity":
		l.FounderCorrectAnswersQuantity = v.(int)
	case "lobby.memberCorrectAnswersQuantity":
		l.MemberCorrectAnswersQuantity = v.(int)
	case "lobby.hasFounderFinishedGame":
		l.HasFounderFinishedGame = v.(bool)
	case "lobby.hasMemberFinishedGame":
		l.HasMemberFinishedGame = v.(bool)
	case "lobby.hasFounderLeftGame":
		l.HasFounderLeftGame = v.(bool)
	case "lobby.hasMemberLeftGame":
		l.HasMemberLeftGame = v.(bool)
	default:
		return fmt.Errorf("unknown field path %q", path)
	}
	return nil
}

func (r *fakeGameRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, id)
	r.deletes++
	return nil
}

func (r *fakeGameRepo) List(_ context.Context) ([]*model.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Game, 0, len(r.games))
	for _, g := range r.games {
		out = append(out, cloneGame(g))
	}
	return out, nil
}

func (r *fakeGameRepo) put(g *model.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.ID] = cloneGame(g)
}

func (r *fakeGameRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func (r *fakeGameRepo) lastUpdate() bson.M {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return nil
	}
	return r.updates[len(r.updates)-1]
}

type fakeQuestionRepo struct {
	pool map[string][]model.Question
	err  error
}

func (r *fakeQuestionRepo) GetByCategory(_ context.Context, category string) ([]model.Question, error) {
	if r.err != nil {
		return nil, r.err
	}
	return append([]model.Question(nil), r.pool[category]...), nil
}

func (r *fakeQuestionRepo) Categories(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(r.pool))
	for c := range r.pool {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeQuestionRepo) Upsert(_ context.Context, _ []model.PoolQuestion) error {
	return nil
}

type fakeArchiveRepo struct {
	mu      sync.Mutex
	games   map[string]*model.ArchivedGame
	saveErr error
}

func newFakeArchiveRepo() *fakeArchiveRepo {
	return &fakeArchiveRepo{games: make(map[string]*model.ArchivedGame)}
}

func (r *fakeArchiveRepo) Save(_ context.Context, archived *model.ArchivedGame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.games[archived.ID] = archived
	return nil
}

func (r *fakeArchiveRepo) GetByID(_ context.Context, id string) (*model.ArchivedGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.games[id]
	if !ok {
		return nil, fmt.Errorf("archived game %s: %w", id, model.ErrNotFound)
	}
	return a, nil
}

func (r *fakeArchiveRepo) ListByUser(_ context.Context, uid string, limit int64) ([]*model.ArchivedGame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.ArchivedGame
	for _, a := range r.games {
		if model.ResolveSeat(&a.Lobby, uid) != model.SeatNone {
			out = append(out, a)
		}
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeArchiveRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}

// fakeFeed delivers notifications to in-memory subscriptions
type fakeFeed struct {
	mu           sync.Mutex
	game         map[string][]*fakeSub
	list         []*fakeSub
	subscribeErr error
	notified     int
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{game: make(map[string][]*fakeSub)}
}

func (f *fakeFeed) NotifyGame(_ context.Context, gameID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified++
	for _, s := range f.game[gameID] {
		s.signal()
	}
	return nil
}

func (f *fakeFeed) NotifyList(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.list {
		s.signal()
	}
	return nil
}

func (f *fakeFeed) SubscribeGame(_ context.Context, gameID string) (cache.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	s := newFakeSub()
	f.game[gameID] = append(f.game[gameID], s)
	return s, nil
}

func (f *fakeFeed) SubscribeList(_ context.Context) (cache.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	s := newFakeSub()
	f.list = append(f.list, s)
	return s, nil
}

func (f *fakeFeed) notifications() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notified
}

type fakeSub struct {
	mu      sync.Mutex
	changes chan struct{}
	closed  bool
}

func newFakeSub() *fakeSub {
	return &fakeSub{changes: make(chan struct{}, 1)}
}

func (s *fakeSub) signal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// fail simulates the feed connection dropping
func (s *fakeSub) fail() {
	s.Close()
}

func (s *fakeSub) Changes() <-chan struct{} {
	return s.changes
}

func (s *fakeSub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.changes)
	}
	return nil
}

func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeLock struct {
	mu       sync.Mutex
	held     map[string]bool
	acquires int
	releases int
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: make(map[string]bool)}
}

func (l *fakeLock) Acquire(_ context.Context, gameID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if l.held[gameID] {
		return false, nil
	}
	l.held[gameID] = true
	return true, nil
}

func (l *fakeLock) Release(_ context.Context, gameID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
	delete(l.held, gameID)
	return nil
}

type statsCall struct {
	User   model.User
	Points int
	Won    bool
}

type fakeStats struct {
	mu    sync.Mutex
	calls []statsCall
	err   error
}

func (s *fakeStats) UpdateUserData(_ context.Context, user model.User, scoreDelta int, won bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, statsCall{User: user, Points: scoreDelta, Won: won})
	return s.err
}

func (s *fakeStats) snapshot() []statsCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]statsCall(nil), s.calls...)
}

type sentMessage struct {
	GameID  string
	UID     string
	Type    string
	Payload interface{}
}

type fakeBroadcaster struct {
	sent chan sentMessage
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{sent: make(chan sentMessage, 256)}
}

func (b *fakeBroadcaster) BroadcastToPlayer(gameID, uid string, msgType string, payload interface{}) {
	b.sent <- sentMessage{GameID: gameID, UID: uid, Type: msgType, Payload: payload}
}

func (b *fakeBroadcaster) BroadcastToGame(gameID string, msgType string, payload interface{}) {
	b.sent <- sentMessage{GameID: gameID, Type: msgType, Payload: payload}
}

// next waits for the next message of msgType sent to uid
func (b *fakeBroadcaster) next(uid, msgType string, timeout time.Duration) (sentMessage, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case m := <-b.sent:
			if m.UID == uid && m.Type == msgType {
				return m, true
			}
		case <-deadline:
			return sentMessage{}, false
		}
	}
}

// fixture wires a store over fakes
type fixture struct {
	games     *fakeGameRepo
	questions *fakeQuestionRepo
	archive   *fakeArchiveRepo
	feed      *fakeFeed
	store     *GameSessionStore
}

func newFixture() *fixture {
	f := &fixture{
		games:     newFakeGameRepo(),
		questions: &fakeQuestionRepo{pool: make(map[string][]model.Question)},
		archive:   newFakeArchiveRepo(),
		feed:      newFakeFeed(),
	}
	f.store = NewGameSessionStore(f.games, f.questions, f.archive, f.feed)
	f.store.shuffle = func(int, func(i, j int)) {}
	f.store.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return f
}

var (
	alice = model.User{UID: "u_alice", DisplayName: "Alice"}
	bob   = model.User{UID: "u_bob", DisplayName: "Bob"}
	carol = model.User{UID: "u_carol", DisplayName: "Carol"}
)

// question builds a four-answer question whose correct slot is correct
func question(id string, correct int) model.Question {
	q := model.Question{ID: id, Question: "Q " + id, Category: "Linux", Difficulty: "Easy"}
	for i := 0; i < 4; i++ {
		q.Slots[i] = model.AnswerSlot{
			Text:    fmt.Sprintf("answer %d", i),
			Present: true,
			Correct: i == correct,
		}
	}
	return q
}

func questions(correct ...int) []model.Question {
	out := make([]model.Question, len(correct))
	for i, c := range correct {
		out[i] = question(fmt.Sprintf("q%d", i), c)
	}
	return out
}

// startedGame is a game with both seats taken and the quiz running
func startedGame(id string, qs []model.Question) *model.Game {
	a, b := alice, bob
	return &model.Game{
		ID:               id,
		GameInProgress:   true,
		Category:         "Linux",
		Questions:        qs,
		QuestionDuration: 1,
		Lobby: model.Lobby{
			Founder:        &a,
			Member:         &b,
			IsFounderReady: true,
			IsMemberReady:  true,
		},
	}
}
