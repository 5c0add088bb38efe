package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"animal-shelter/internal/domain/users"
	"animal-shelter/internal/ports/auth"

	"github.com/juju/errors"
)

// UsersRepo implementa users.Repository y users.SessionRepository.
type UsersRepo struct{ s *Store }

func (s *Store) Users() *UsersRepo { return &UsersRepo{s: s} }

const userColumns = `id, nombre, email, password, telefono, tipo, activo, fecha_registro`

func scanUser(sc interface{ Scan(...any) error }) (users.User, error) {
	var (
		u       users.User
		role    string
		created dbTime
	)
	if err := sc.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &role, &u.Active, &created); err != nil {
		return users.User{}, err
	}
	u.Role = auth.Role(role)
	u.CreatedAt = created.Time
	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, u users.User) (int64, error) {
	id, err := r.s.insert(ctx, `
		INSERT INTO usuarios (nombre, email, password, telefono, tipo, activo, fecha_registro)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.Name, strings.ToLower(u.Email), u.PasswordHash, u.Phone, string(u.Role), u.Active, u.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, errors.AlreadyExistsf("email %s", u.Email)
		}
		return 0, errors.Annotate(err, "insert user")
	}
	return id, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	u, err := scanUser(r.s.queryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, errors.NotFoundf("user %d", id)
	}
	return u, err
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	u, err := scanUser(r.s.queryRow(ctx, `SELECT `+userColumns+` FROM usuarios WHERE email = ?`, strings.ToLower(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, errors.NotFoundf("user %s", email)
	}
	return u, err
}

func (r *UsersRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.s.query(ctx, `SELECT `+userColumns+` FROM usuarios ORDER BY fecha_registro DESC, id DESC`)
	if err != nil {
		return nil, errors.Annotate(err, "list users")
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UsersRepo) SetRole(ctx context.Context, id int64, role auth.Role) error {
	res, err := r.s.exec(ctx, `UPDATE usuarios SET tipo = ? WHERE id = ?`, string(role), id)
	return updated(res, err, "user %d", id)
}

func (r *UsersRepo) CreateSession(ctx context.Context, sess users.Session) error {
	_, err := r.s.exec(ctx, `INSERT INTO sesiones (token, usuario_id, expira_en, creada_en) VALUES (?, ?, ?, ?)`,
		sess.Token, sess.UserID, sess.ExpiresAt.UTC(), sess.CreatedAt.UTC())
	return errors.Annotate(err, "insert session")
}

func (r *UsersRepo) GetSession(ctx context.Context, token string) (users.Session, error) {
	var (
		sess             users.Session
		expires, created dbTime
	)
	err := r.s.queryRow(ctx, `SELECT token, usuario_id, expira_en, creada_en FROM sesiones WHERE token = ?`, token).
		Scan(&sess.Token, &sess.UserID, &expires, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return users.Session{}, errors.NotFoundf("session")
	}
	if err != nil {
		return users.Session{}, err
	}
	sess.ExpiresAt = expires.Time
	sess.CreatedAt = created.Time
	return sess, nil
}

func (r *UsersRepo) DeleteSession(ctx context.Context, token string) error {
	_, err := r.s.exec(ctx, `DELETE FROM sesiones WHERE token = ?`, token)
	return errors.Annotate(err, "delete session")
}

func (r *UsersRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.s.exec(ctx, `DELETE FROM sesiones WHERE expira_en <= ?`, now.UTC())
	if err != nil {
		return 0, errors.Annotate(err, "delete expired sessions")
	}
	return res.RowsAffected()
}
