package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"saas-subscription-backend/internal/config"
	"saas-subscription-backend/internal/domain/ports/adapter"
	"saas-subscription-backend/internal/infra/redis"
	"saas-subscription-backend/internal/usecase"
)

// Server owns the HTTP surface: public catalog and content routes, the
// authenticated API, and the provider webhook endpoint.
type Server struct {
	userUC      usecase.UserUseCase
	planUC      usecase.PlanUseCase
	subUC       usecase.SubscriptionUseCase
	projectUC   usecase.ProjectUseCase
	contentUC   usecase.ContentUseCase
	reconcileUC usecase.ReconcileUseCase

	verifier adapter.IdentityVerifier
	billing  adapter.BillingGateway
	limiter  *redis.RateLimiter

	rateLimit      int
	rateWindow     time.Duration
	requestTimeout time.Duration

	log *zerolog.Logger
}

func NewServer(
	cfg *config.ServerConfig,
	userUC usecase.UserUseCase,
	planUC usecase.PlanUseCase,
	subUC usecase.SubscriptionUseCase,
	projectUC usecase.ProjectUseCase,
	contentUC usecase.ContentUseCase,
	reconcileUC usecase.ReconcileUseCase,
	verifier adapter.IdentityVerifier,
	billing adapter.BillingGateway,
	limiter *redis.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		userUC:         userUC,
		planUC:         planUC,
		subUC:          subUC,
		projectUC:      projectUC,
		contentUC:      contentUC,
		reconcileUC:    reconcileUC,
		verifier:       verifier,
		billing:        billing,
		limiter:        limiter,
		rateLimit:      cfg.RateLimit,
		rateWindow:     cfg.RateLimitWindow,
		requestTimeout: cfg.RequestTimeout,
		log:            logger,
	}
}

// Router builds the chi route tree.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(traceMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)
	r.Use(middleware.RealIP)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// The webhook is exempt from the request timeout wrapper so slow
		// reconciliation serializing on row locks is bounded only by the
		// provider's delivery timeout.
		r.Post("/payments/webhook", s.handleWebhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(s.requestTimeout))
			r.Use(s.rateLimitMiddleware)

			// public
			r.Get("/payments/plans", s.handleListPlans)
			r.Get("/blog/articles", s.handleListArticles)
			r.Get("/blog/articles/{slug}", s.handleGetArticle)

			// authenticated
			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)

				r.Get("/auth/me", s.handleMe)

				r.Post("/payments/plans", s.handleCreatePlan)
				r.Put("/payments/plans/{planID}", s.handleUpdatePlan)
				r.Delete("/payments/plans/{planID}", s.handleDeactivatePlan)
				r.Get("/payments/subscriptions", s.handleListSubscriptions)
				r.Post("/payments/subscribe", s.handleSubscribe)
				r.Post("/payments/cancel", s.handleCancel)
				r.Post("/payments/checkout", s.handleCheckout)
				r.Get("/payments/invoices", s.handleListInvoices)

				r.Route("/projects", func(r chi.Router) {
					r.Get("/", s.handleListProjects)
					r.Post("/", s.handleCreateProject)
					r.Get("/{projectID}", s.handleGetProject)
					r.Put("/{projectID}", s.handleUpdateProject)
					r.Delete("/{projectID}", s.handleDeleteProject)
					r.Post("/{projectID}/members", s.handleAddMember)
					r.Delete("/{projectID}/members/{userID}", s.handleRemoveMember)
				})
			})
		})
	})

	return r
}
