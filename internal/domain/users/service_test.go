package users

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"animal-shelter/internal/platform/apperr"
	"animal-shelter/internal/ports/auth"

	"github.com/juju/errors"
	"golang.org/x/crypto/bcrypt"
)

// -------------------------
// Test repos (in-memory)
// -------------------------

type testRepo struct {
	nextID   int64
	byID     map[int64]User
	sessions map[string]Session
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[int64]User{}, sessions: map[string]Session{}}
}

func (r *testRepo) Create(ctx context.Context, u User) (int64, error) {
	for _, x := range r.byID {
		if x.Email == u.Email {
			return 0, errors.AlreadyExistsf("email %q", u.Email)
		}
	}
	r.nextID++
	u.ID = r.nextID
	r.byID[u.ID] = u
	return u.ID, nil
}

func (r *testRepo) GetByID(ctx context.Context, id int64) (User, error) {
	u, ok := r.byID[id]
	if !ok {
		return User{}, errors.NotFoundf("user %d", id)
	}
	return u, nil
}

func (r *testRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	for _, u := range r.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, errors.NotFoundf("user %q", email)
}

func (r *testRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *testRepo) SetRole(ctx context.Context, id int64, role auth.Role) error {
	u, ok := r.byID[id]
	if !ok {
		return errors.NotFoundf("user %d", id)
	}
	u.Role = role
	r.byID[id] = u
	return nil
}

func (r *testRepo) CreateSession(ctx context.Context, s Session) error {
	r.sessions[s.Token] = s
	return nil
}

func (r *testRepo) GetSession(ctx context.Context, token string) (Session, error) {
	s, ok := r.sessions[token]
	if !ok {
		return Session{}, errors.NotFoundf("session")
	}
	return s, nil
}

func (r *testRepo) DeleteSession(ctx context.Context, token string) error {
	if _, ok := r.sessions[token]; !ok {
		return errors.NotFoundf("session")
	}
	delete(r.sessions, token)
	return nil
}

func (r *testRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for k, s := range r.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(r.sessions, k)
			n++
		}
	}
	return n, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(repo *testRepo) (*Service, *clock) {
	c := &clock{t: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	svc := NewService(Deps{Users: repo, Sessions: repo, SessionTTL: time.Hour})
	svc.now = c.now
	svc.hashCost = bcrypt.MinCost
	n := 0
	svc.newToken = func() string {
		n++
		return fmt.Sprintf("tok-%d", n)
	}
	return svc, c
}

func TestRegister(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: " Ana@Mail.test ", Password: "secreto1", Phone: "555"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if u.Role != auth.RoleUsuario || u.Email != "ana@mail.test" || !u.Active {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash == "secreto1" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secreto1")) != nil {
		t.Fatalf("password must be stored as bcrypt hash")
	}

	_, err = svc.Register(ctx, RegisterInput{Name: "Otra", Email: "ana@mail.test", Password: "secreto2"})
	if !errors.Is(err, apperr.Validation) {
		t.Fatalf("expected validation error for duplicate email, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(newTestRepo())
	cases := []RegisterInput{
		{Name: "", Email: "a@b.test", Password: "secreto1"},
		{Name: "A", Email: "no-es-email", Password: "secreto1"},
		{Name: "A", Email: "a@b.test", Password: "123"},
	}
	for _, in := range cases {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, apperr.Validation) {
			t.Fatalf("input %+v: expected validation error, got %v", in, err)
		}
	}
}

func TestLoginAndResolveSession(t *testing.T) {
	repo := newTestRepo()
	svc, clk := newTestService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@mail.test", Password: "secreto1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Login(ctx, "ana@mail.test", "mala"); !errors.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nadie@mail.test", "secreto1"); !errors.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}

	u, sess, err := svc.Login(ctx, "ANA@mail.test", "secreto1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token != "tok-1" || !sess.ExpiresAt.Equal(clk.t.Add(time.Hour)) {
		t.Fatalf("unexpected session: %+v", sess)
	}

	claims, err := svc.ResolveSession(ctx, sess.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if claims.UserID != u.ID || claims.Role != auth.RoleUsuario {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// El rol se relee en cada request.
	if err := svc.AssignRole(ctx, u.ID, auth.RoleVeterinario); err != nil {
		t.Fatalf("assign role: %v", err)
	}
	claims, _ = svc.ResolveSession(ctx, sess.Token)
	if claims.Role != auth.RoleVeterinario {
		t.Fatalf("expected veterinario after role change, got %s", claims.Role)
	}

	clk.t = clk.t.Add(2 * time.Hour)
	if _, err := svc.ResolveSession(ctx, sess.Token); !errors.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected unauthorized for expired session, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	_, _ = svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@mail.test", Password: "secreto1"})
	_, sess, _ := svc.Login(ctx, "ana@mail.test", "secreto1")

	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := svc.Logout(ctx, sess.Token); err != nil {
		t.Fatalf("second logout must be a no-op, got %v", err)
	}
	if _, err := svc.ResolveSession(ctx, sess.Token); !errors.Is(err, apperr.Unauthorized) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	u, err := svc.EnsureAdmin(ctx, "admin@refugio.test", "cambiame", "")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if u.Role != auth.RoleAdmin || repo.byID[u.ID].Role != auth.RoleAdmin || u.Name != "Administrador" {
		t.Fatalf("unexpected admin: %+v", u)
	}

	again, err := svc.EnsureAdmin(ctx, "admin@refugio.test", "otra-clave", "X")
	if err != nil || again.ID != u.ID {
		t.Fatalf("second call must reuse account, got %+v err=%v", again, err)
	}
	if _, _, err := svc.Login(ctx, "admin@refugio.test", "cambiame"); err != nil {
		t.Fatalf("password must not change: %v", err)
	}
}

func TestDirectory(t *testing.T) {
	repo := newTestRepo()
	svc, _ := newTestService(repo)
	ctx := context.Background()
	u, _ := svc.Register(ctx, RegisterInput{Name: "Dra. Ruiz", Email: "ruiz@mail.test", Password: "secreto1", Phone: "777"})

	name, email, err := svc.DisplayName(ctx, u.ID)
	if err != nil || name != "Dra. Ruiz" || email != "ruiz@mail.test" {
		t.Fatalf("DisplayName = %q %q %v", name, email, err)
	}
	c, err := svc.Contact(ctx, u.ID)
	if err != nil || c.Phone != "777" {
		t.Fatalf("Contact = %+v %v", c, err)
	}
	if _, _, err := svc.DisplayName(ctx, 99); !errors.Is(err, errors.NotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(newTestRepo())
	_, err := svc.List(context.Background(), auth.Claims{UserID: 1, Role: auth.RoleVeterinario})
	if !errors.Is(err, apperr.Forbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
