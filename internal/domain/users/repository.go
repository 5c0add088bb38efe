package users

import (
	"context"
	"time"

	"animal-shelter/internal/ports/auth"
)

type Repository interface {
	// Create devuelve errors.AlreadyExists si el email ya está registrado.
	Create(ctx context.Context, u User) (int64, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	// List ordena por fecha_registro DESC.
	List(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, id int64, role auth.Role) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, s Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}
