package api

import (
	"log/slog"
	"net/http"
	"time"

	"codequest_admin/internal/api/handler"
	"codequest_admin/internal/api/middleware"
	"codequest_admin/internal/app/service"
	"codequest_admin/internal/common/security"
	"codequest_admin/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	issuer *security.TokenIssuer,
	authService *service.AuthService,
	sessions *service.SessionManager,
	m *metrics.Metrics,
	logger *slog.Logger,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Searches "Authorization: Bearer T" and puts the verified claims in context.
	r.Use(jwtauth.Verifier(issuer.JWTAuth()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", m.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		v1.Route("/auth", func(auth chi.Router) {
			authHandler.RegisterRoutes(auth)
			auth.Group(func(protected chi.Router) {
				protected.Use(middleware.Authenticator)
				authHandler.RegisterSessionRoutes(protected)
			})
		})

		v1.Group(func(admin chi.Router) {
			admin.Use(middleware.Authenticator)
			admin.Use(middleware.AdminOnly)
			admin.Use(middleware.Session(authService, sessions))

			handler.NewRoomHandler().RegisterRoutes(admin)
			admin.Route("/room/teams", handler.NewTeamHandler().RegisterRoutes)
			admin.Route("/room/questions", handler.NewQuestionHandler().RegisterRoutes)
			admin.Route("/room/leaderboard", handler.NewLeaderboardHandler().RegisterRoutes)
			handler.NewTradeHandler().RegisterRoutes(admin)
		})
	})

	return r
}
