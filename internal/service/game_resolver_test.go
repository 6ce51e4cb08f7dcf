package service

import (
	"context"
	"sync"
	"testing"

	"codequiz/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finishedGame(founderPoints, memberPoints int) *model.Game {
	g := startedGame("g1", questions(0, 1, 0, 2))
	g.Lobby.FounderPoints = founderPoints
	g.Lobby.MemberPoints = memberPoints
	g.Lobby.FounderCorrectAnswersQuantity = founderPoints / PointsPerCorrectAnswer
	g.Lobby.MemberCorrectAnswersQuantity = memberPoints / PointsPerCorrectAnswer
	g.Lobby.HasFounderFinishedGame = true
	g.Lobby.HasMemberFinishedGame = true
	return g
}

func TestClassifyTie(t *testing.T) {
	game := finishedGame(30, 30)

	for _, viewer := range []model.User{alice, bob} {
		result, decided, err := Classify(game, viewer.UID)
		require.NoError(t, err)
		require.True(t, decided)
		assert.Equal(t, model.OutcomeTie, result.Outcome)
		assert.Equal(t, alice.UID, result.First.UID)
		assert.Equal(t, bob.UID, result.Second.UID)
		assert.Equal(t, 30, result.FirstPoints)
		assert.Equal(t, 30, result.SecondPoints)
		assert.Equal(t, 3, result.CorrectAnswers)
		assert.Equal(t, 4, result.TotalQuestions)
		assert.False(t, result.Forfeit)
	}
}

func TestClassifyWinIsMirrored(t *testing.T) {
	game := finishedGame(20, 40)

	forBob, _, err := Classify(game, bob.UID)
	require.NoError(t, err)
	forAlice, _, err := Classify(game, alice.UID)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeWin, forBob.Outcome)
	assert.Equal(t, model.OutcomeLose, forAlice.Outcome)
	for _, r := range []*model.GameResult{forBob, forAlice} {
		assert.Equal(t, bob.UID, r.Winner.UID)
		assert.Equal(t, alice.UID, r.Loser.UID)
		assert.Equal(t, 40, r.WinnerPoints)
		assert.Equal(t, 20, r.LoserPoints)
	}
	assert.Equal(t, 4, forBob.CorrectAnswers)
	assert.Equal(t, 2, forAlice.CorrectAnswers)
}

func TestClassifyForfeit(t *testing.T) {
	game := startedGame("g1", questions(0, 1))
	game.Lobby.FounderPoints = 0
	game.Lobby.MemberPoints = 10
	game.Lobby.HasMemberLeftGame = true

	forAlice, decided, err := Classify(game, alice.UID)
	require.NoError(t, err)
	require.True(t, decided)
	assert.Equal(t, model.OutcomeWin, forAlice.Outcome)
	assert.True(t, forAlice.Forfeit)
	assert.Equal(t, 10, forAlice.LoserPoints)
	assert.Equal(t, 0, forAlice.WinnerPoints)

	forBob, _, err := Classify(game, bob.UID)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeLose, forBob.Outcome)
}

func TestClassifyBothLeftComparesPoints(t *testing.T) {
	game := startedGame("g1", questions(0, 1))
	game.Lobby.HasFounderLeftGame = true
	game.Lobby.HasMemberLeftGame = true
	game.Lobby.FounderPoints = 10

	result, decided, err := Classify(game, bob.UID)
	require.NoError(t, err)
	require.True(t, decided)
	assert.Equal(t, model.OutcomeLose, result.Outcome)
	assert.False(t, result.Forfeit)
}

func TestClassifyUndecided(t *testing.T) {
	game := startedGame("g1", questions(0, 1))
	game.Lobby.HasFounderFinishedGame = true

	result, decided, err := Classify(game, alice.UID)
	require.NoError(t, err)
	assert.False(t, decided)
	assert.Nil(t, result)
}

func TestClassifyStranger(t *testing.T) {
	_, _, err := Classify(finishedGame(10, 20), carol.UID)
	assert.ErrorIs(t, err, model.ErrIllegalParticipant)
}

func TestClassifyIsTotal(t *testing.T) {
	type seatState struct{ finished, left bool }
	terminal := []seatState{{true, false}, {false, true}, {true, true}}
	points := []int{0, 10, 20}

	for _, fs := range terminal {
		for _, ms := range terminal {
			for _, fp := range points {
				for _, mp := range points {
					game := startedGame("g1", questions(0, 1))
					game.Lobby.HasFounderFinishedGame, game.Lobby.HasFounderLeftGame = fs.finished, fs.left
					game.Lobby.HasMemberFinishedGame, game.Lobby.HasMemberLeftGame = ms.finished, ms.left
					game.Lobby.FounderPoints, game.Lobby.MemberPoints = fp, mp

					a, decided, err := Classify(game, alice.UID)
					require.NoError(t, err)
					require.True(t, decided)
					b, _, err := Classify(game, bob.UID)
					require.NoError(t, err)

					switch a.Outcome {
					case model.OutcomeTie:
						assert.Equal(t, model.OutcomeTie, b.Outcome)
					case model.OutcomeWin:
						assert.Equal(t, model.OutcomeLose, b.Outcome)
					case model.OutcomeLose:
						assert.Equal(t, model.OutcomeWin, b.Outcome)
					default:
						t.Fatalf("unexpected outcome %q", a.Outcome)
					}
				}
			}
		}
	}
}

type resolverFixture struct {
	*fixture
	lock        *fakeLock
	stats       *fakeStats
	broadcaster *fakeBroadcaster
	resolver    *GameResolver
}

func newResolverFixture() *resolverFixture {
	f := newFixture()
	rf := &resolverFixture{
		fixture:     f,
		lock:        newFakeLock(),
		stats:       &fakeStats{},
		broadcaster: newFakeBroadcaster(),
	}
	rf.resolver = NewGameResolver(f.store, rf.lock, rf.stats, rf.broadcaster)
	return rf
}

func TestTryResolveFinalizesOnce(t *testing.T) {
	rf := newResolverFixture()
	rf.games.put(finishedGame(40, 20))
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			done, err := rf.resolver.TryResolve(ctx, "g1")
			assert.NoError(t, err)
			results[i] = done
		}(i)
	}
	wg.Wait()

	assert.True(t, results[0] != results[1], "exactly one call finalizes")
	assert.Equal(t, 1, rf.archive.count())
	assert.Equal(t, 1, rf.games.deletes)

	calls := rf.stats.snapshot()
	require.Len(t, calls, 2)
	byUID := map[string]statsCall{}
	for _, c := range calls {
		byUID[c.User.UID] = c
	}
	assert.Equal(t, statsCall{User: alice, Points: 40, Won: true}, byUID[alice.UID])
	assert.Equal(t, statsCall{User: bob, Points: 20, Won: false}, byUID[bob.UID])

	_, err := rf.store.GetGame(ctx, "g1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	msg, ok := rf.broadcaster.next(bob.UID, MsgGameResolved, waitFor)
	require.True(t, ok)
	assert.Equal(t, model.OutcomeLose, msg.Payload.(*model.GameResult).Outcome)
}

func TestTryResolveUndecided(t *testing.T) {
	rf := newResolverFixture()
	game := startedGame("g1", questions(0))
	game.Lobby.HasFounderFinishedGame = true
	rf.games.put(game)

	done, err := rf.resolver.TryResolve(context.Background(), "g1")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0, rf.lock.acquires)
	assert.Empty(t, rf.stats.snapshot())
}

func TestTryResolveMissingGame(t *testing.T) {
	rf := newResolverFixture()

	done, err := rf.resolver.TryResolve(context.Background(), "gone")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestTryResolveArchiveFailureKeepsRecord(t *testing.T) {
	rf := newResolverFixture()
	rf.archive.saveErr = errBackend
	rf.games.put(finishedGame(10, 10))
	ctx := context.Background()

	done, err := rf.resolver.TryResolve(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, done)

	_, err = rf.store.GetGame(ctx, "g1")
	assert.NoError(t, err, "record stays when it could not be archived")
	assert.Len(t, rf.stats.snapshot(), 2, "stats still applied")
}

func TestTryResolveStatsFailureIsNotFatal(t *testing.T) {
	rf := newResolverFixture()
	rf.stats.err = errBackend
	rf.games.put(finishedGame(10, 0))

	done, err := rf.resolver.TryResolve(context.Background(), "g1")
	require.NoError(t, err)
	assert.True(t, done)
	assert.Len(t, rf.stats.snapshot(), 2)
}

func TestOutcomeFallsBackToArchive(t *testing.T) {
	rf := newResolverFixture()
	rf.games.put(finishedGame(30, 30))
	ctx := context.Background()

	_, err := rf.resolver.TryResolve(ctx, "g1")
	require.NoError(t, err)

	result, err := rf.resolver.Outcome(ctx, "g1", bob.UID)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeTie, result.Outcome)
	assert.Equal(t, alice.UID, result.First.UID)
}

func TestOutcomeUndecided(t *testing.T) {
	rf := newResolverFixture()
	rf.games.put(startedGame("g1", questions(0)))

	_, err := rf.resolver.Outcome(context.Background(), "g1", alice.UID)
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = rf.resolver.Outcome(context.Background(), "missing", alice.UID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTryResolveRunsResolvedHooks(t *testing.T) {
	rf := newResolverFixture()
	rf.games.put(finishedGame(40, 20))
	ctx := context.Background()

	var mu sync.Mutex
	var resolved []string
	rf.resolver.OnResolved(func(gameID string) {
		mu.Lock()
		defer mu.Unlock()
		resolved = append(resolved, gameID)
	})

	done, err := rf.resolver.TryResolve(ctx, "g1")
	require.NoError(t, err)
	require.True(t, done)
	done, err = rf.resolver.TryResolve(ctx, "g1")
	require.NoError(t, err)
	assert.False(t, done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"g1"}, resolved)
}
