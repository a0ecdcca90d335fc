package web

import (
	"context"
	"net/http"
	"time"

	"subscription-billing/internal/domain/ports/repository"
	"subscription-billing/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RateLimiter is the throttling surface used by the login handler.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Server struct {
	subUC  usecase.SubscriptionUseCase
	hookUC usecase.WebhookUseCase
	userUC usecase.UserUseCase

	auth    *AuthManager
	idem    repository.IdempotencyStore
	limiter RateLimiter

	loginLimit  int
	loginWindow time.Duration
	timeout     time.Duration

	log *zerolog.Logger
}

type Options struct {
	LoginRateLimit  int
	LoginRateWindow time.Duration
	RequestTimeout  time.Duration
}

func NewServer(
	subUC usecase.SubscriptionUseCase,
	hookUC usecase.WebhookUseCase,
	userUC usecase.UserUseCase,
	auth *AuthManager,
	idem repository.IdempotencyStore,
	limiter RateLimiter,
	opts Options,
	logger *zerolog.Logger,
) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		subUC:       subUC,
		hookUC:      hookUC,
		userUC:      userUC,
		auth:        auth,
		idem:        idem,
		limiter:     limiter,
		loginLimit:  opts.LoginRateLimit,
		loginWindow: opts.LoginRateWindow,
		timeout:     opts.RequestTimeout,
		log:         &l,
	}
}

// Router assembles all routes. Mutating subscription routes sit behind auth
// and the idempotency guard; reads bypass the guard entirely.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.timeout))

	authed := s.auth.Require()
	idem := Idempotency(s.idem, s.log)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/register", s.handleRegister)
		r.Post("/users/login", s.handleLogin)
		r.With(authed).Get("/users/profile", s.handleProfile)

		r.Get("/subscription/plan", s.handleGetPlan)
		r.With(authed).Get("/subscription/status", s.handleStatus)
		r.With(authed, idem).Post("/subscription/initiate", s.handleInitiate)
		r.With(authed, idem).Post("/subscription/cancel", s.handleCancel)

		r.Post("/webhooks/payment", s.handleWebhook)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
