package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/tenant"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
	HealthChecks   map[string]HealthCheck
}

func NewRouter(
	cfg RouterConfig,
	JWTService jwt.Service,
	tenants tenant.TenantRepository,
	attendanceHandler AttendanceHandler,
	identifierHandler IdentifierHandler,
	personHandler PersonHandler,
	tenantHandler TenantHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		MaxAge:           300,
	}))

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  slog.LevelDebug,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", healthHandler(cfg.HealthChecks))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {

		// EventSource cannot send headers, so the stream also accepts ?jwt=
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(JWTService.JWTAuth(), jwtauth.TokenFromHeader, jwtauth.TokenFromQuery))
			r.Use(middleware.AuthRequired(JWTService))
			r.Use(middleware.RequireTenant(tenants))
			r.Get("/attendance/stream", attendanceHandler.Stream)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(JWTService))
			r.Use(middleware.RequireTenant(tenants))
			r.Use(chiMiddleware.AllowContentType("application/json", "multipart/form-data"))

			r.Route("/attendance", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermissionAttendanceCapture)).Post("/check-in", attendanceHandler.CheckIn)
				r.With(middleware.RequirePermission(auth.PermissionAttendanceCapture)).Post("/check-out", attendanceHandler.CheckOut)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(auth.PermissionAttendanceViewOwn))
					r.Get("/{personId}/history", attendanceHandler.History)
					r.Get("/{personId}/summary", attendanceHandler.Summary)
					r.Get("/{personId}/export", attendanceHandler.Export)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(auth.PermissionAttendanceManage))
					r.Post("/manual-batch", attendanceHandler.ManualBatch)
					r.Post("/reconcile", attendanceHandler.Reconcile)
					r.Put("/{recordId}/correct", attendanceHandler.Correct)
					r.Get("/{recordId}/corrections", attendanceHandler.Corrections)
				})

				r.Route("/policies/{context}", func(r chi.Router) {
					r.With(middleware.RequirePermission(auth.PermissionAttendanceViewAll)).Get("/", attendanceHandler.GetPolicy)
					r.With(middleware.RequirePermission(auth.PermissionPolicyManage)).Put("/", attendanceHandler.UpsertPolicy)
				})
			})

			r.Route("/identifiers", func(r chi.Router) {
				r.Use(middleware.RequirePermission(auth.PermissionIdentifierIssue))
				r.Post("/", identifierHandler.Issue)
				r.Post("/roll-numbers", identifierHandler.AssignRollNumber)
			})

			r.Route("/persons", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermissionAttendanceViewOwn)).Get("/{id}", personHandler.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePermission(auth.PermissionPersonManage))
					r.Post("/", personHandler.Create)
					r.Post("/import", personHandler.Import)
				})
			})

			r.Route("/tenant", func(r chi.Router) {
				r.With(middleware.RequirePermission(auth.PermissionAttendanceViewAll)).Get("/", tenantHandler.Get)
				r.With(middleware.RequirePermission(auth.PermissionTenantManage)).Put("/code", tenantHandler.UpdateCode)
			})
		})
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := make(map[string]string, len(checks))
		healthy := true
		for name, check := range checks {
			if err := check(ctx); err != nil {
				slog.Warn("Health check failed", "component", name, "error", err)
				status[name] = "down"
				healthy = false
				continue
			}
			status[name] = "up"
		}

		if !healthy {
			response.ServiceUnavailable(w, "One or more dependencies are down")
			return
		}
		response.Success(w, status)
	}
}
