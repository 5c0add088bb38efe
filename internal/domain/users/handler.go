package users

import (
	"net/http"
	"time"

	"animal-shelter/internal/middleware"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/platform/respond"
	"animal-shelter/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, log logger.Logger) {
	r.Post("/registro", registerHandler(svc, log))
	r.Post("/login", loginHandler(svc, log))
	r.Get("/logout", logoutHandler(svc, log))
	r.Get("/user", meHandler(svc, log))
	r.Get("/admin/check", adminCheckHandler(svc, log))

	r.With(middleware.RequireRole(auth.RoleAdmin, log)).Get("/admin/usuarios", listUsersHandler(svc, log))
}

type registerRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Telefono string `json:"telefono"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse nunca incluye el hash de la contraseña.
type userResponse struct {
	ID            int64     `json:"id"`
	Nombre        string    `json:"nombre"`
	Email         string    `json:"email"`
	Telefono      string    `json:"telefono"`
	Tipo          auth.Role `json:"tipo"`
	FechaRegistro time.Time `json:"fecha_registro"`
}

type loginResponse struct {
	User     userResponse `json:"user"`
	Token    string       `json:"token"`
	ExpiraEn time.Time    `json:"expira_en"`
	Redirect string       `json:"redirect"`
}

type adminCheckResponse struct {
	IsAdmin bool         `json:"isAdmin"`
	User    userResponse `json:"user"`
}

// registerHandler godoc
// @Summary Registro de usuario
// @Description Crea una cuenta con rol usuario.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de la cuenta"
// @Success 201 {object} userResponse
// @Failure 400 {object} respond.Envelope "Datos inválidos o email ya registrado"
// @Router /registro [post]
func registerHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		u, err := svc.Register(r.Context(), RegisterInput{
			Name:     req.Nombre,
			Email:    req.Email,
			Password: req.Password,
			Phone:    req.Telefono,
		})
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.Created(w, toUserResponse(u), "Cuenta creada exitosamente. Ahora puedes iniciar sesión.")
	}
}

// loginHandler godoc
// @Summary Iniciar sesión
// @Description Devuelve el token de sesión en el body y en la cookie refugio_session.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 401 {object} respond.Envelope "Credenciales incorrectas"
// @Router /login [post]
func loginHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		u, sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    sess.Token,
			Path:     "/",
			Expires:  sess.ExpiresAt,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   r.TLS != nil,
		})
		respond.OK(w, loginResponse{
			User:     toUserResponse(u),
			Token:    sess.Token,
			ExpiraEn: sess.ExpiresAt,
			Redirect: "/dashboard",
		})
	}
}

// logoutHandler godoc
// @Summary Cerrar sesión
// @Tags auth
// @Produce json
// @Success 200 {object} respond.Envelope
// @Router /logout [get]
func logoutHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Logout(r.Context(), middleware.RequestToken(r)); err != nil {
			respond.Error(w, r, log, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     middleware.SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		respond.OK(w, map[string]string{"redirect": "/login.html"})
	}
}

// meHandler godoc
// @Summary Usuario actual
// @Tags auth
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Success 200 {object} userResponse
// @Failure 401 {object} respond.Envelope
// @Router /user [get]
func meHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Me(r.Context(), middleware.Claims(r.Context()))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.OK(w, toUserResponse(u))
	}
}

// adminCheckHandler godoc
// @Summary ¿Es administrador?
// @Tags auth
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Success 200 {object} adminCheckResponse
// @Failure 401 {object} respond.Envelope
// @Router /admin/check [get]
func adminCheckHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := svc.Me(r.Context(), middleware.Claims(r.Context()))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		respond.OK(w, adminCheckResponse{IsAdmin: u.Role == auth.RoleAdmin, User: toUserResponse(u)})
	}
}

// listUsersHandler godoc
// @Summary Listar usuarios
// @Tags admin
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev, ID de usuario"
// @Param X-Debug-Role header string false "Solo en modo dev, rol"
// @Success 200 {array} userResponse
// @Failure 403 {object} respond.Envelope
// @Router /admin/usuarios [get]
func listUsersHandler(svc *Service, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context(), middleware.Claims(r.Context()))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		out := make([]userResponse, 0, len(items))
		for _, u := range items {
			out = append(out, toUserResponse(u))
		}
		respond.OK(w, out)
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:            u.ID,
		Nombre:        u.Name,
		Email:         u.Email,
		Telefono:      u.Phone,
		Tipo:          u.Role,
		FechaRegistro: u.CreatedAt,
	}
}
