package api

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/humanbench/internal/api/apierr"
	"github.com/mcoot/humanbench/internal/api/handler"
	"github.com/mcoot/humanbench/internal/api/middleware"
	"github.com/mcoot/humanbench/internal/api/response"
	"github.com/mcoot/humanbench/internal/dependencies/clock"
	"github.com/mcoot/humanbench/internal/metrics"
	sharedmw "github.com/mcoot/humanbench/internal/middleware"
	"github.com/mcoot/humanbench/internal/services/auth"
	"github.com/mcoot/humanbench/internal/services/ranking"
	"github.com/mcoot/humanbench/internal/services/rooms"
	"github.com/mcoot/humanbench/internal/services/scoring"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Clock   clock.Clock
	Store   handler.Pinger

	AuthService    *auth.Service
	ScoringService *scoring.Service
	RankingService *ranking.Service
	RoomsService   *rooms.Service

	CORSAllowedOrigins []string
	// AuthRateLimitRPS limits /api/auth/* per client IP; <= 0 disables it
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	// AuthTrustedProxies may set X-Forwarded-For for rate limit keying
	AuthTrustedProxies []netip.Prefix
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Logger)
	benchmarkHandler := handler.NewBenchmarkHandler(cfg.ScoringService, cfg.Logger)
	rankingHandler := handler.NewRankingHandler(cfg.RankingService, cfg.Logger)
	roomHandler := handler.NewRoomHandler(cfg.RoomsService, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.Store, cfg.Clock, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	requireAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}
	limiter := sharedmw.NewRateLimiter(sharedmw.RateLimitConfig{
		RPS:            cfg.AuthRateLimitRPS,
		Burst:          cfg.AuthRateLimitBurst,
		TrustedProxies: cfg.AuthTrustedProxies,
		OnLimited: func(req *http.Request) {
			cfg.Metrics.RateLimited.WithLabelValues(req.URL.Path).Inc()
		},
		Reject: func(w http.ResponseWriter, _ *http.Request) {
			apierr.WriteError(w, apierr.NewRateLimitedError())
		},
	})

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(sharedmw.Logging(cfg.Logger))
	r.Use(sharedmw.Metrics(cfg.Metrics))

	r.Handle("/metrics", promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{
		Registry: cfg.Metrics.Registry,
	})).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// Identity routes, rate limited per client
	authRoutes := api.PathPrefix("/auth").Subrouter()
	authRoutes.Use(limiter.Middleware)
	authRoutes.HandleFunc("/guest", authHandler.CreateGuest).Methods(http.MethodPost)
	authRoutes.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRoutes.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	authRoutes.Handle("/me", requireAuth(authHandler.GetMe)).Methods(http.MethodGet)

	// Score ingestion and public history
	api.Handle("/benchmarks", requireAuth(benchmarkHandler.Submit)).Methods(http.MethodPost)
	api.HandleFunc("/benchmarks", benchmarkHandler.List).Methods(http.MethodGet)

	// Leaderboards are public
	api.HandleFunc("/rankings/global", rankingHandler.Global).Methods(http.MethodGet)
	api.HandleFunc("/rankings/room/{code}", rankingHandler.Room).Methods(http.MethodGet)

	// Rooms
	api.Handle("/rooms/create", requireAuth(roomHandler.Create)).Methods(http.MethodPost)
	api.Handle("/rooms/join/{code}", requireAuth(roomHandler.Join)).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{code}", roomHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Check).Methods(http.MethodGet)

	return sharedmw.CORS(cfg.CORSAllowedOrigins)(r)
}

func notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusNotFound, apierr.ErrorResponse{
		Error: apierr.APIError{Code: apierr.CodeNotFound, Message: "Not found"},
	})
}

func methodNotAllowedHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusMethodNotAllowed, apierr.ErrorResponse{
		Error: apierr.APIError{Code: apierr.CodeInvalidRequest, Message: "Method not allowed"},
	})
}
