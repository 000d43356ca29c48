// Package httpserver exposes the admin dashboard API over HTTP.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/supermock-admin/internal/limiter"
	"github.com/and161185/supermock-admin/internal/metrics"
	"github.com/and161185/supermock-admin/internal/model"
	"github.com/and161185/supermock-admin/internal/service"
)

// DefaultMaxBody caps JSON request bodies.
const DefaultMaxBody = 8192

// Reviewer serves the review pages, grading drafts and center join.
type Reviewer interface {
	CenterReviews(ctx context.Context, p model.Principal, centerID uuid.UUID) ([]model.AttemptReview, error)
	AttemptPreview(ctx context.Context, p model.Principal, attemptID uuid.UUID) (model.AttemptDetail, error)
	GradingData(ctx context.Context, p model.Principal, moduleID uuid.UUID) (model.GradeModuleDetail, error)
	SetDecision(p model.Principal, moduleID uuid.UUID, dec model.GradingDecision) error
	Decisions(p model.Principal, moduleID uuid.UUID) []model.GradingDecision
	ClearDecisions(p model.Principal, moduleID uuid.UUID)
	SaveGrades(ctx context.Context, p model.Principal, moduleID uuid.UUID, extra []model.GradingDecision, feedback *string) (model.SaveGradesResult, error)
	JoinCenter(ctx context.Context, p model.Principal, passcode string) (model.JoinResult, error)
}

var _ Reviewer = (*service.ReviewService)(nil)

// PublicConfig is served to the dashboard front-end. Public values only.
type PublicConfig struct {
	SupabaseURL      string `json:"supabaseUrl"`
	SupabaseAnonKey  string `json:"supabaseAnonKey"`
	TurnstileSiteKey string `json:"turnstileSiteKey"`
}

// Options configures a Server.
type Options struct {
	JWTSecret    []byte
	MaxBodyBytes int64
	CORSOrigins  []string
	Public       PublicConfig
	Metrics      *metrics.Metrics
	// Ready reports backend health for /health; nil means always ready.
	Ready func(ctx context.Context) error
}

// Server wires services into HTTP handlers.
type Server struct {
	members  service.MemberProvisioner
	students service.StudentProvisioner
	reviews  Reviewer
	limiter  limiter.Limiter

	log       *zap.Logger
	metrics   *metrics.Metrics
	jwtSecret []byte
	maxBody   int64
	origins   []string
	public    PublicConfig
	ready     func(ctx context.Context) error
}

// New constructs a Server with injected services.
func New(
	members service.MemberProvisioner, students service.StudentProvisioner, reviews Reviewer,
	lim limiter.Limiter, log *zap.Logger, opts Options,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBody
	}
	return &Server{
		members:   members,
		students:  students,
		reviews:   reviews,
		limiter:   lim,
		log:       log,
		metrics:   opts.Metrics,
		jwtSecret: opts.JWTSecret,
		maxBody:   opts.MaxBodyBytes,
		origins:   opts.CORSOrigins,
		public:    opts.Public,
		ready:     opts.Ready,
	}
}

// Router returns the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Recover(s.log), Logging(s.log, s.metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "apikey", "x-client-info"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/config", s.handleConfig)

	// provisioning authenticates after validation, inside the handler
	r.Post("/create/members", s.handleCreateMember)
	r.Post("/create/student", s.handleCreateStudent)
	r.Post("/centers/join", s.handleJoinCenter)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/centers/{centerID}/reviews", s.handleCenterReviews)
		r.Get("/attempts/{attemptID}/preview", s.handleAttemptPreview)
		r.Route("/grading/{moduleID}", func(r chi.Router) {
			r.Get("/", s.handleGradingData)
			r.Get("/decisions", s.handleListDecisions)
			r.Delete("/decisions", s.handleClearDecisions)
			r.Put("/decisions/{answerID}", s.handleSetDecision)
			r.Post("/save", s.handleSaveGrades)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.public)
}
