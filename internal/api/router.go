package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fastprodman/surveyledger/internal/config"
	"github.com/fastprodman/surveyledger/internal/infra/metrics"
	"github.com/fastprodman/surveyledger/internal/repos/users"
)

type Deps struct {
	Ledger    Ledger
	Identity  Identity
	Metrics   *metrics.Metrics
	RateLimit config.RateLimitConfig
}

// NewRouter registers every endpoint on a chi router.
func NewRouter(d Deps) http.Handler {
	h := NewHandler(d.Ledger, d.Identity)
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if d.Metrics != nil {
		r.Use(d.Metrics.InstrumentHandler)
		r.Handle("/metrics", d.Metrics.Handler())
	}

	limit := func(next http.Handler) http.Handler { return next }
	if d.RateLimit.RPS > 0 {
		limit = newRateLimiter(d.RateLimit.RPS, d.RateLimit.Burst).Handler
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(limit).Post("/register", h.RegisterHandler)
		r.With(limit).Post("/login", h.LoginHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate(d.Identity))

			r.Get("/user", h.CurrentUserHandler)
			r.Get("/wallet", h.WalletHandler)
			r.Get("/surveys", h.ListSurveysHandler)

			r.Group(func(r chi.Router) {
				r.Use(requireRole(users.RoleBusiness), limit)

				r.Post("/wallet/deposit", h.DepositHandler)
				r.Post("/surveys", h.CreateSurveyHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireRole(users.RoleAdmin))

				r.With(limit).Patch("/surveys/{surveyId}/status", h.UpdateSurveyStatusHandler)
				r.Get("/admin/audit", h.AuditHandler)
			})
		})
	})

	return r
}

// requestLogger writes one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			slog.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
