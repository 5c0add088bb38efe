package users

import (
	"time"

	"animal-shelter/internal/ports/auth"
)

type User struct {
	ID           int64
	Name         string
	Email        string // único, en minúsculas
	PasswordHash string
	Phone        string
	Role         auth.Role
	Active       bool
	CreatedAt    time.Time
}

func (u User) Claims() auth.Claims {
	return auth.Claims{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// Session es una fila de sesiones. El token es opaco (uuid).
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}
