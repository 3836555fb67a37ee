package models

import "time"

// TokenPair is returned by login, register and refresh.
type TokenPair struct {
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponse bundles the token pair with the authenticated user.
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}
