package service

import (
	"codequiz/internal/model"
	"codequiz/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidDisplayName = fmt.Errorf("display name is required: %w", model.ErrValidation)
	ErrInvalidToken       = errors.New("invalid or expired token")
)

const maxDisplayNameLen = 32

// AuthService is the identity provider: it hands out a stable uid and a
// signed token carrying the display name
type AuthService struct {
	jwtSecret []byte
	tokenTTL  time.Duration
	users     repository.UserRepo
}

// NewAuthService creates a new auth service
func NewAuthService(secret string, tokenTTL time.Duration, users repository.UserRepo) *AuthService {
	return &AuthService{
		jwtSecret: []byte(secret),
		tokenTTL:  tokenTTL,
		users:     users,
	}
}

// Login returns a token for the player. A fresh uid is issued unless the
// request re-presents a token this service signed, in which case its uid is
// kept and only the display name and photo are refreshed.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" || len(name) > maxDisplayNameLen {
		return nil, ErrInvalidDisplayName
	}

	uid := "u_" + uuid.New().String()
	if req.Token != "" {
		claims, err := s.parse(req.Token, jwt.WithoutClaimsValidation())
		if err != nil {
			return nil, err
		}
		uid = claims.UID
	}

	user := model.User{
		UID:         uid,
		DisplayName: name,
		PhotoURL:    req.PhotoURL,
	}
	if s.users != nil {
		if err := s.users.EnsureUser(ctx, &user); err != nil {
			return nil, storageErr("register user", err)
		}
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{
		Token: token,
		User:  user,
	}, nil
}

// GenerateToken signs a token for an existing identity
func (s *AuthService) GenerateToken(user model.User) (string, error) {
	now := time.Now()
	claims := &model.UserClaims{
		UID:         user.UID,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT and returns its claims
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	return s.parse(tokenString)
}

func (s *AuthService) parse(tokenString string, opts ...jwt.ParserOption) (*model.UserClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid || claims.UID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserFromClaims returns the identity snapshot carried by the claims
func UserFromClaims(claims *model.UserClaims) model.User {
	return model.User{
		UID:         claims.UID,
		DisplayName: claims.DisplayName,
		PhotoURL:    claims.PhotoURL,
	}
}
