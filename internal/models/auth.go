package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the payload of an admin session token. Sessions live
// only in the signed token itself; nothing is persisted server-side.
type SessionClaims struct {
	Department string `json:"department"`
	jwt.RegisteredClaims
}

// LoginRequest carries the admin credential payload.
type LoginRequest struct {
	Department string `json:"department" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// LoginResponse mirrors the portal's historical login body.
type LoginResponse struct {
	OK         bool   `json:"ok"`
	Token      string `json:"token"`
	Department string `json:"department"`
}
