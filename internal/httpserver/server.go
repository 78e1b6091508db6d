// Package httpserver exposes the verification core over HTTP: a
// self-service surface for students and a review surface for admins.
package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/ports"
	"scholarfund/internal/core/service"
)

// Server wires the handlers to the core services.
type Server struct {
	guard       *service.Guard
	store       ports.VerificationStore
	transitions *service.TransitionHandler
	fate        *service.FateOrchestrator
	cooldowns   ports.CooldownStore
	bus         ports.EventBus

	reapplyCooldown time.Duration
	log             zerolog.Logger
}

// Deps carries everything the server needs.
type Deps struct {
	Guard           *service.Guard
	Store           ports.VerificationStore
	Transitions     *service.TransitionHandler
	Fate            *service.FateOrchestrator
	Cooldowns       ports.CooldownStore
	Identity        ports.IdentityProvider
	Bus             ports.EventBus
	ReapplyCooldown time.Duration
}

// New builds the router.
func New(deps Deps, baseLogger *zerolog.Logger) http.Handler {
	s := &Server{
		guard:           deps.Guard,
		store:           deps.Store,
		transitions:     deps.Transitions,
		fate:            deps.Fate,
		cooldowns:       deps.Cooldowns,
		bus:             deps.Bus,
		reapplyCooldown: deps.ReapplyCooldown,
		log:             baseLogger.With().Str("component", "http_server").Logger(),
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(deps.Identity))

		r.Route("/verifications", func(r chi.Router) {
			r.Post("/", s.handleStartVerification)
			r.Get("/me", s.handleGetOwnVerification)
			r.Route("/{verificationID}", func(r chi.Router) {
				r.Get("/", s.handleGetVerification)
				r.Post("/submit", s.handleSubmit)
				r.Post("/info", s.handleProvideInfo)
				r.Post("/abandon", s.handleAbandon)
				r.Post("/restart", s.handleRestart)
				r.Post("/reapply", s.handleReapply)
				r.Post("/documents", s.handleAppendDocument)
				r.Get("/documents/{docID}", s.handleGetDocument)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/verifications/queue", s.handleReviewQueue)
			r.Get("/verifications/{verificationID}", s.handleAdminGetVerification)
			r.Post("/verifications/{verificationID}/action", s.handleAdminAction)
			r.Post("/verifications/{verificationID}/notes", s.handleAppendNote)
			r.Patch("/verifications/{verificationID}/documents/{docID}", s.handleSetDocumentVerified)
			r.Get("/users/{userID}/campaign-stats", s.handleCampaignStats)
		})
	})

	return r
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.code).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}
