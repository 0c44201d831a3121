package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims - структура JWT токена доступа.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// UserContextKey is the gin context key holding the authenticated user id.
const UserContextKey = "user_id"
