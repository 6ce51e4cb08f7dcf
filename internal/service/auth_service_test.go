package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"codequiz/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepo struct {
	users    map[string]*model.UserStats
	applyErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.UserStats)}
}

func (r *fakeUserRepo) EnsureUser(_ context.Context, user *model.User) error {
	if s, ok := r.users[user.UID]; ok {
		s.DisplayName = user.DisplayName
		return nil
	}
	r.users[user.UID] = &model.UserStats{UID: user.UID, DisplayName: user.DisplayName}
	return nil
}

func (r *fakeUserRepo) GetByUID(_ context.Context, uid string) (*model.UserStats, error) {
	s, ok := r.users[uid]
	if !ok {
		return nil, model.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *fakeUserRepo) ApplyGameResult(ctx context.Context, user *model.User, points int, won bool) (*model.UserStats, error) {
	if r.applyErr != nil {
		return nil, r.applyErr
	}
	if err := r.EnsureUser(ctx, user); err != nil {
		return nil, err
	}
	s := r.users[user.UID]
	s.GamesPlayed++
	if won {
		s.Wins++
	}
	s.TotalPoints += points
	s.WinRatio = float64(s.Wins) / float64(s.GamesPlayed)
	c := *s
	return &c, nil
}

func TestLoginIssuesValidToken(t *testing.T) {
	users := newFakeUserRepo()
	auth := NewAuthService("test-secret", time.Hour, users)

	resp, err := auth.Login(context.Background(), &model.LoginRequest{DisplayName: "  Ada  "})
	require.NoError(t, err)
	assert.Equal(t, "Ada", resp.User.DisplayName)
	assert.True(t, strings.HasPrefix(resp.User.UID, "u_"))
	assert.Contains(t, users.users, resp.User.UID)

	claims, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.UID, claims.UID)
	assert.Equal(t, resp.User, UserFromClaims(claims))
}

func TestLoginKeepsUIDForReturningPlayer(t *testing.T) {
	users := newFakeUserRepo()
	auth := NewAuthService("test-secret", time.Hour, users)
	ctx := context.Background()

	first, err := auth.Login(ctx, &model.LoginRequest{DisplayName: "Ada"})
	require.NoError(t, err)

	again, err := auth.Login(ctx, &model.LoginRequest{DisplayName: "Ada L.", Token: first.Token})
	require.NoError(t, err)
	assert.Equal(t, first.User.UID, again.User.UID)
	assert.Len(t, users.users, 1)
	assert.Equal(t, "Ada L.", users.users[first.User.UID].DisplayName)

	fresh, err := auth.Login(ctx, &model.LoginRequest{DisplayName: "Ada"})
	require.NoError(t, err)
	assert.NotEqual(t, first.User.UID, fresh.User.UID)
}

func TestLoginRenewsExpiredToken(t *testing.T) {
	expired := NewAuthService("test-secret", -time.Minute, nil)
	stale, err := expired.GenerateToken(alice)
	require.NoError(t, err)

	auth := NewAuthService("test-secret", time.Hour, nil)
	resp, err := auth.Login(context.Background(), &model.LoginRequest{DisplayName: "Alice", Token: stale})
	require.NoError(t, err)
	assert.Equal(t, alice.UID, resp.User.UID)

	_, err = auth.ValidateToken(resp.Token)
	require.NoError(t, err)
}

func TestLoginRejectsForeignToken(t *testing.T) {
	other := NewAuthService("other-secret", time.Hour, nil)
	foreign, err := other.GenerateToken(alice)
	require.NoError(t, err)

	auth := NewAuthService("test-secret", time.Hour, nil)
	_, err = auth.Login(context.Background(), &model.LoginRequest{DisplayName: "Alice", Token: foreign})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenCarriesPhoto(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour, nil)

	resp, err := auth.Login(context.Background(), &model.LoginRequest{
		DisplayName: "Ada",
		PhotoURL:    "https://example.com/ada.png",
	})
	require.NoError(t, err)

	claims, err := auth.ValidateToken(resp.Token)
	require.NoError(t, err)
	user := UserFromClaims(claims)
	assert.Equal(t, "https://example.com/ada.png", user.PhotoURL)
	assert.Equal(t, resp.User, user)
}

func TestLoginRejectsBadNames(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour, newFakeUserRepo())

	for _, name := range []string{"", "   ", strings.Repeat("x", 33)} {
		_, err := auth.Login(context.Background(), &model.LoginRequest{DisplayName: name})
		assert.ErrorIs(t, err, model.ErrValidation, "name %q", name)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	auth := NewAuthService("test-secret", time.Hour, nil)
	other := NewAuthService("other-secret", time.Hour, nil)
	expired := NewAuthService("test-secret", -time.Minute, nil)

	foreign, err := other.GenerateToken(alice)
	require.NoError(t, err)
	stale, err := expired.GenerateToken(alice)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      stale,
		"empty":        "",
	} {
		_, err := auth.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, name)
	}
}
