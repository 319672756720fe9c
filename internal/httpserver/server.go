package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"accounts/backend/internal/config"
	authusecase "accounts/backend/internal/usecase/auth"
	userusecase "accounts/backend/internal/usecase/user"

	"github.com/gorilla/mux"
)

// Server wraps the HTTP server lifecycle.
type Server struct {
	httpServer     *http.Server
	router         *mux.Router
	authService    *authusecase.Service
	userService    *userusecase.Service
	metrics        *metrics
	logger         *slog.Logger
	uploadMaxBytes int64
	addr           string
}

// NewServer constructs a new Server with configured dependencies.
func NewServer(cfg config.Config, authService *authusecase.Service, userService *userusecase.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := mux.NewRouter()
	addr := cfg.HTTPPort
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	handler := withLogging(withRecovery(withCORS(router, cfg.AllowedOrigins), logger), logger)

	srv := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		router:         router,
		authService:    authService,
		userService:    userService,
		metrics:        newMetrics(),
		logger:         logger,
		uploadMaxBytes: cfg.UploadMaxBytes,
		addr:           addr,
	}
	if srv.uploadMaxBytes <= 0 {
		srv.uploadMaxBytes = 5 << 20
	}
	srv.registerRoutes()
	return srv
}

// Start bootstraps the HTTP server on the configured address.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the fully wrapped handler, as served by Start.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured network address for the HTTP server.
func (s *Server) Addr() string {
	return s.addr
}
