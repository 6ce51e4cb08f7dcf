package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims identifying a player
type UserClaims struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for login. A previously issued token,
// even an expired one, keeps the player's uid across logins.
type LoginRequest struct {
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Token       string `json:"token,omitempty"`
}

// LoginResponse is returned after successful login
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
