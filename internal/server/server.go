package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/repstrain/internal/engine"
	"github.com/meltforce/repstrain/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	eng    *engine.Engine
	log    *slog.Logger
	apiKey string
	router chi.Router

	// defaultBaseline seeds muscle baselines when a new user first appears.
	defaultBaseline float64

	mu    sync.Mutex
	users map[string]int // logins with baselines seeded, login -> user id
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, eng *engine.Engine, apiKey string, defaultBaseline float64, log *slog.Logger) *Server {
	s := &Server{
		db:              db,
		eng:             eng,
		log:             log,
		apiKey:          apiKey,
		defaultBaseline: defaultBaseline,
		router:          chi.NewRouter(),
		users:           make(map[string]int),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)
	s.router.Use(s.ResolveUser)

	// Write path (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/workouts", s.handleProcessWorkout)
		r.Put("/api/v1/baselines/{muscle}", s.handleSetBaselineOverride)
	})

	// Read path
	s.router.Get("/api/v1/workouts", s.handleListWorkouts)
	s.router.Get("/api/v1/muscles", s.handleMuscleStates)
	s.router.Get("/api/v1/muscles/{muscle}/recovery", s.handleRecoveryQuery)
	s.router.Get("/api/v1/muscles/{muscle}/timeline", s.handleRecoveryTimeline)
	s.router.Get("/api/v1/records", s.handleRecords)
	s.router.Get("/api/v1/records/events", s.handleRecordEvents)
	s.router.Get("/api/v1/baselines", s.handleBaselines)
	s.router.Get("/api/v1/exercises", s.handleExercises)
	s.router.Get("/api/v1/volume", s.handleVolume)
}

// ensureUser resolves a login to a user id. GetOrCreateUser runs on every
// request so last_seen stays fresh; the cache only gates the one-time
// baseline seeding.
func (s *Server) ensureUser(r *http.Request, login string) (int, error) {
	ctx := r.Context()
	id, err := s.db.GetOrCreateUser(ctx, login, "")
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	_, seeded := s.users[login]
	s.mu.Unlock()
	if seeded {
		return id, nil
	}

	if err := s.db.SeedBaselines(ctx, id, s.defaultBaseline); err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.users[login] = id
	s.mu.Unlock()
	return id, nil
}
