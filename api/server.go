package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"cosmossdk.io/log"
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/paw-chain/modelreg/api/health"
	"github.com/paw-chain/modelreg/x/registry/types"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// Server represents the registry HTTP gateway
type Server struct {
	router  *gin.Engine
	config  *Config
	queries types.QueryServer
	health  *health.HealthChecker
	logger  log.Logger
}

// Config holds server configuration
type Config struct {
	Host            string
	Port            string
	CORSOrigins     []string
	RateLimitRPS    int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	TLSEnabled      bool
	TLSCertFile     string
	TLSKeyFile      string
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            "5000",
		CORSOrigins:     []string{"http://localhost:3000", "http://localhost:8080"},
		RateLimitRPS:    100,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("api port must be set")
	}
	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.RateLimitRPS)
	}
	if c.TLSEnabled && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		return errors.New("tls enabled without certificate and key files")
	}
	return nil
}

// NewServer creates a new API server instance serving the given registry queries.
// A nil checker gets a fresh one; the registry readiness check is always registered.
func NewServer(queries types.QueryServer, checker *health.HealthChecker, logger log.Logger, config *Config) (*Server, error) {
	if queries == nil {
		return nil, errors.New("query server is required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid api config: %w", err)
	}
	if checker == nil {
		checker = health.NewHealthChecker(Version)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	checker.RegisterCheck("registry", health.CommittedStateCheck(func(ctx context.Context) (int64, error) {
		resp, err := queries.LatestModel(ctx, &types.QueryLatestModelRequest{})
		if status.Code(err) == codes.Unavailable {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return resp.Height, nil
	}))

	server := &Server{
		config:  config,
		queries: queries,
		health:  checker,
		logger:  logger.With("module", "api"),
	}
	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with all routes and middleware
func (s *Server) setupRouter() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	// Global middleware - ORDER MATTERS!
	// 1. Recovery (must be first to catch panics)
	s.router.Use(RecoveryMiddleware(s.logger))

	// 2. Security headers (set early)
	s.router.Use(SecurityHeadersMiddleware())

	// 3. Request ID (for tracing)
	s.router.Use(RequestIDMiddleware())

	// 4. Logging
	s.router.Use(LoggerMiddleware(s.logger))

	// 5. CORS
	s.router.Use(CORSMiddleware(s.config.CORSOrigins))

	// 6. Rate limiting (before proof composition)
	s.router.Use(RateLimitMiddleware(s.config.RateLimitRPS))

	// 7. Timeout
	s.router.Use(TimeoutMiddleware(s.config.RequestTimeout))

	s.router.GET("/health", gin.WrapF(s.health.HealthHandler))
	s.router.GET("/health/live", gin.WrapF(s.health.LivenessHandler))
	s.router.GET("/health/ready", gin.WrapF(s.health.ReadinessHandler))

	s.registerRoutes()
}

// Handler returns the HTTP handler serving the gateway
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves the gateway until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:        s.router,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	if s.config.TLSEnabled {
		srv.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS13,
		}
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.config.TLSEnabled {
			s.logger.Info("starting registry API server (TLS)", "addr", srv.Addr)
			err = srv.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			s.logger.Info("starting registry API server", "addr", srv.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down registry API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	return nil
}
