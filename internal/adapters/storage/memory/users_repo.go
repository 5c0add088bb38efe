package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"animal-shelter/internal/domain/users"
	"animal-shelter/internal/ports/auth"

	"github.com/juju/errors"
)

// userRepo implementa users.Repository y users.SessionRepository.
type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u users.User) (int64, error) {
	err := r.s.write(ctx, func(d *data) error {
		for _, other := range d.users {
			if strings.EqualFold(other.Email, u.Email) {
				return errors.AlreadyExistsf("email %s", u.Email)
			}
		}
		u.ID = d.next("usuarios")
		d.users[u.ID] = u
		return nil
	})
	return u.ID, err
}

func (r userRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	var (
		u  users.User
		ok bool
	)
	r.s.read(ctx, func(d *data) { u, ok = d.users[id] })
	if !ok {
		return users.User{}, errors.NotFoundf("user %d", id)
	}
	return u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	var (
		u  users.User
		ok bool
	)
	r.s.read(ctx, func(d *data) {
		for _, candidate := range d.users {
			if strings.EqualFold(candidate.Email, email) {
				u, ok = candidate, true
				return
			}
		}
	})
	if !ok {
		return users.User{}, errors.NotFoundf("user %s", email)
	}
	return u, nil
}

func (r userRepo) List(ctx context.Context) ([]users.User, error) {
	out := make([]users.User, 0)
	r.s.read(ctx, func(d *data) {
		for _, u := range d.users {
			out = append(out, u)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r userRepo) SetRole(ctx context.Context, id int64, role auth.Role) error {
	return r.s.write(ctx, func(d *data) error {
		u, ok := d.users[id]
		if !ok {
			return errors.NotFoundf("user %d", id)
		}
		u.Role = role
		d.users[id] = u
		return nil
	})
}

func (r userRepo) CreateSession(ctx context.Context, sess users.Session) error {
	return r.s.write(ctx, func(d *data) error {
		if _, exists := d.sessions[sess.Token]; exists {
			return errors.AlreadyExistsf("session")
		}
		d.sessions[sess.Token] = sess
		return nil
	})
}

func (r userRepo) GetSession(ctx context.Context, token string) (users.Session, error) {
	var (
		sess users.Session
		ok   bool
	)
	r.s.read(ctx, func(d *data) { sess, ok = d.sessions[token] })
	if !ok {
		return users.Session{}, errors.NotFoundf("session")
	}
	return sess, nil
}

func (r userRepo) DeleteSession(ctx context.Context, token string) error {
	return r.s.write(ctx, func(d *data) error {
		delete(d.sessions, token)
		return nil
	})
}

func (r userRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.s.write(ctx, func(d *data) error {
		for token, sess := range d.sessions {
			if !sess.ExpiresAt.After(now) {
				delete(d.sessions, token)
				n++
			}
		}
		return nil
	})
	return n, err
}
