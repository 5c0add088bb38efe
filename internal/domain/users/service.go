package users

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/ports/auth"
	"animal-shelter/internal/ports/directory"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultSessionTTL = 24 * time.Hour
	minPasswordLen    = 6
)

type Deps struct {
	Users      Repository
	Sessions   SessionRepository
	SessionTTL time.Duration
	Log        logger.Logger
}

type Service struct {
	users    Repository
	sessions SessionRepository
	ttl      time.Duration
	log      logger.Logger

	now      func() time.Time
	newToken func() string
	hashCost int
}

func NewService(d Deps) *Service {
	ttl := d.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		users:    d.Users,
		sessions: d.Sessions,
		ttl:      ttl,
		log:      log.With(map[string]any{"component": "users"}),
		now:      time.Now,
		newToken: uuid.NewString,
		hashCost: bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

// Register crea una cuenta con rol usuario.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" {
		return User{}, errors.NotValidf("missing nombre")
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return User{}, errors.NotValidf("email %q", in.Email)
	}
	if len(in.Password) < minPasswordLen {
		return User{}, errors.NotValidf("password shorter than %d characters", minPasswordLen)
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return User{}, errors.NotValidf("email already registered")
	case !errors.Is(err, errors.NotFound):
		return User{}, apperr.Storagef(err, "lookup email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return User{}, errors.Annotate(err, "hash password")
	}

	u := User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         auth.RoleUsuario,
		Active:       true,
		CreatedAt:    s.now(),
	}
	id, err := s.users.Create(ctx, u)
	if errors.Is(err, errors.AlreadyExists) {
		return User{}, errors.NotValidf("email already registered")
	}
	if err != nil {
		return User{}, apperr.Storagef(err, "create user")
	}
	u.ID = id

	s.log.Info("user registered", map[string]any{"user_id": id})
	return u, nil
}

// Login valida credenciales y abre una sesión. Credenciales inválidas y cuentas
// inactivas dan el mismo error.
func (s *Service) Login(ctx context.Context, email, password string) (User, Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, Session{}, errors.NotValidf("email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, errors.NotFound) {
		return User{}, Session{}, errors.Unauthorizedf("invalid credentials")
	}
	if err != nil {
		return User{}, Session{}, apperr.Storagef(err, "lookup email")
	}
	if !u.Active || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, Session{}, errors.Unauthorizedf("invalid credentials")
	}

	now := s.now()
	sess := Session{
		Token:     s.newToken(),
		UserID:    u.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return User{}, Session{}, apperr.Storagef(err, "create session")
	}

	if n, err := s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		s.log.Warn("purge expired sessions", map[string]any{"err": err})
	} else if n > 0 {
		s.log.Debug("expired sessions purged", map[string]any{"count": n})
	}

	s.log.Info("user logged in", map[string]any{"user_id": u.ID, "role": string(u.Role)})
	return u, sess, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	err := s.sessions.DeleteSession(ctx, token)
	if err != nil && !errors.Is(err, errors.NotFound) {
		return apperr.Storagef(err, "delete session")
	}
	return nil
}

// ResolveSession convierte un token en claims. El rol se lee del usuario en cada
// request, así un cambio de rol aplica sin volver a loguear.
func (s *Service) ResolveSession(ctx context.Context, token string) (auth.Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, errors.Unauthorizedf("missing session")
	}

	sess, err := s.sessions.GetSession(ctx, token)
	if errors.Is(err, errors.NotFound) {
		return auth.Claims{}, errors.Unauthorizedf("unknown session")
	}
	if err != nil {
		return auth.Claims{}, apperr.Storagef(err, "load session")
	}
	if !s.now().Before(sess.ExpiresAt) {
		return auth.Claims{}, errors.Unauthorizedf("session expired")
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, errors.NotFound) {
		return auth.Claims{}, errors.Unauthorizedf("session user gone")
	}
	if err != nil {
		return auth.Claims{}, apperr.Storagef(err, "load session user")
	}
	if !u.Active {
		return auth.Claims{}, errors.Unauthorizedf("user inactive")
	}
	return u.Claims(), nil
}

// Me devuelve el usuario del actor.
func (s *Service) Me(ctx context.Context, actor auth.Claims) (User, error) {
	if err := auth.Require(actor, auth.RoleUsuario); err != nil {
		return User{}, err
	}
	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return User{}, apperr.Storagef(err, "get user %d", actor.UserID)
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, actor auth.Claims) ([]User, error) {
	if err := auth.Require(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	items, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Storagef(err, "list users")
	}
	return items, nil
}

// AssignRole cambia el tipo de un usuario. Lo usa la aprobación de solicitudes de
// veterinario (dentro de su transacción) y el bootstrap del admin.
func (s *Service) AssignRole(ctx context.Context, userID int64, role auth.Role) error {
	if !role.Valid() {
		return errors.NotValidf("role %q", role)
	}
	if userID <= 0 {
		return errors.NotFoundf("user %d", userID)
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		return apperr.Storagef(err, "set role of user %d", userID)
	}
	s.log.Info("role assigned", map[string]any{"user_id": userID, "role": string(role)})
	return nil
}

// EnsureAdmin crea la cuenta admin configurada si no existe, o le da rol admin si
// existe. Nunca cambia la contraseña de una cuenta existente.
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return User{}, errors.NotValidf("missing admin email")
	}

	u, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role != auth.RoleAdmin {
			if err := s.AssignRole(ctx, u.ID, auth.RoleAdmin); err != nil {
				return User{}, err
			}
			u.Role = auth.RoleAdmin
		}
		return u, nil
	case !errors.Is(err, errors.NotFound):
		return User{}, apperr.Storagef(err, "lookup admin")
	}

	if strings.TrimSpace(name) == "" {
		name = "Administrador"
	}
	u, err = s.Register(ctx, RegisterInput{Name: name, Email: email, Password: password})
	if err != nil {
		return User{}, err
	}
	if err := s.AssignRole(ctx, u.ID, auth.RoleAdmin); err != nil {
		return User{}, err
	}
	u.Role = auth.RoleAdmin
	s.log.Info("admin account created", map[string]any{"user_id": u.ID})
	return u, nil
}

// DisplayName implementa history.StaffDirectory.
func (s *Service) DisplayName(ctx context.Context, userID int64) (string, string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return u.Name, u.Email, nil
}

// Contact implementa directory.Directory.
func (s *Service) Contact(ctx context.Context, userID int64) (directory.Contact, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return directory.Contact{}, err
	}
	return directory.Contact{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
