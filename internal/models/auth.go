package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SystemActor names writes performed without an authenticated user.
const SystemActor = "system"

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the issued token and user info.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor is the identity a write is attributed to.
type Actor struct {
	ID   *int64
	Name string
}

// ActorFromClaims builds an actor from token claims; nil claims yield the system actor.
func ActorFromClaims(claims *JWTClaims) Actor {
	if claims == nil {
		return Actor{Name: SystemActor}
	}
	id := claims.UserID
	name := claims.FullName
	if name == "" {
		name = claims.Email
	}
	return Actor{ID: &id, Name: name}
}

// DisplayName never returns an empty string.
func (a Actor) DisplayName() string {
	if a.Name == "" {
		return SystemActor
	}
	return a.Name
}
