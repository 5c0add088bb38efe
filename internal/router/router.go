package router

import (
	"io"
	"net/http"
	"time"

	"animal-shelter/internal/adapters/auth/session"
	"animal-shelter/internal/adapters/storage/memory"
	"animal-shelter/internal/adapters/storage/sqlstore"
	"animal-shelter/internal/domain/adoptions"
	"animal-shelter/internal/domain/animals"
	"animal-shelter/internal/domain/history"
	"animal-shelter/internal/domain/reports"
	"animal-shelter/internal/domain/stats"
	"animal-shelter/internal/domain/users"
	"animal-shelter/internal/domain/vetrequests"
	"animal-shelter/internal/middleware"
	"animal-shelter/internal/platform/logger"
	"animal-shelter/internal/platform/metrics"
	"animal-shelter/internal/platform/respond"
	"animal-shelter/internal/ports/auth"
	"animal-shelter/internal/ports/blob"
	"animal-shelter/internal/ports/storage"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Repositories agrupa los repos de un mismo store; Tx debe ser el transactor de ese store.
type Repositories struct {
	Tx          storage.Transactor
	Animals     animals.Repository
	History     history.Repository
	Adoptions   adoptions.Repository
	Users       users.Repository
	Sessions    users.SessionRepository
	VetRequests vetrequests.Repository
	Reports     reports.Repository
	Stats       stats.Repository
}

func MemoryRepositories(st *memory.Store) Repositories {
	return Repositories{
		Tx:          st,
		Animals:     st.Animals(),
		History:     st.History(),
		Adoptions:   st.Adoptions(),
		Users:       st.Users(),
		Sessions:    st.Sessions(),
		VetRequests: st.VetRequests(),
		Reports:     st.Reports(),
		Stats:       st.Stats(),
	}
}

func SQLRepositories(st *sqlstore.Store) Repositories {
	return Repositories{
		Tx:          st,
		Animals:     st.Animals(),
		History:     st.History(),
		Adoptions:   st.Adoptions(),
		Users:       st.Users(),
		Sessions:    st.Users(),
		VetRequests: st.VetRequests(),
		Reports:     st.Reports(),
		Stats:       st.Stats(),
	}
}

type Options struct {
	// Repos vacío => store en memoria.
	Repos Repositories

	// Photos nil => las altas multipart ignoran archivos y /uploads responde 404.
	Photos blob.Store

	// FallbackVerifier se consulta cuando el token no es una sesión local (puede ser nil).
	FallbackVerifier auth.AuthVerifier
	DevHeaders       bool
	SessionTTL       time.Duration

	CORSOrigins []string

	Log     logger.Logger
	Metrics *metrics.Collector
}

func NewRouter(opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	collector := opts.Metrics
	if collector == nil {
		collector = metrics.NewCollector()
	}
	repos := opts.Repos
	if repos.Animals == nil {
		repos = MemoryRepositories(memory.New())
	}

	// Services por módulo
	usersSvc := users.NewService(users.Deps{
		Users:      repos.Users,
		Sessions:   repos.Sessions,
		SessionTTL: opts.SessionTTL,
		Log:        log,
	})
	historySvc := history.NewService(repos.History, usersSvc)
	animalsSvc := animals.NewService(animals.Deps{
		Repo:    repos.Animals,
		Audit:   historySvc,
		Tx:      repos.Tx,
		Staff:   usersSvc,
		Log:     log,
		Metrics: collector,
	})
	adoptionsSvc := adoptions.NewService(adoptions.Deps{
		Repo:      repos.Adoptions,
		Animals:   animalsSvc,
		Directory: usersSvc,
		Tx:        repos.Tx,
		Log:       log,
	})
	vetRequestsSvc := vetrequests.NewService(vetrequests.Deps{
		Repo:      repos.VetRequests,
		Roles:     usersSvc,
		Directory: usersSvc,
		Tx:        repos.Tx,
		Log:       log,
	})
	reportsSvc := reports.NewService(repos.Reports, usersSvc, log)
	statsSvc := stats.NewService(repos.Stats, log)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log, collector))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(session.NewVerifier(usersSvc, opts.FallbackVerifier), opts.DevHeaders, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler(collector))
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get(blob.URLPrefix+"{key}", uploadsHandler(opts.Photos, log))

	r.Route("/api", func(api chi.Router) {
		users.RegisterRoutes(api, usersSvc, log)
		animals.RegisterRoutes(api, animalsSvc, opts.Photos, log)
		history.RegisterRoutes(api, historySvc, log)
		adoptions.RegisterRoutes(api, adoptionsSvc, log)
		vetrequests.RegisterRoutes(api, vetRequestsSvc, log)
		reports.RegisterRoutes(api, reportsSvc, opts.Photos, log)
		stats.RegisterRoutes(api, statsSvc, log)
	})

	if len(opts.CORSOrigins) == 0 {
		return r
	}
	return handlers.CORS(
		handlers.AllowedOrigins(opts.CORSOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)(r)
}

// uploadsHandler sirve las fotos guardadas en el blob store.
func uploadsHandler(photos blob.Store, log logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if photos == nil {
			respond.Error(w, r, log, blob.ErrNotFound)
			return
		}
		rc, contentType, err := photos.Open(r.Context(), chi.URLParam(r, "key"))
		if err != nil {
			respond.Error(w, r, log, err)
			return
		}
		defer rc.Close()

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = io.Copy(w, rc)
	}
}
