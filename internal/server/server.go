package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bnema/addonctl/internal/addons"
)

// Upstream is the platform API the proxy forwards to
type Upstream interface {
	Login(ctx context.Context, email, password string) (string, error)
	GetAddons(ctx context.Context, authKey, email string) (addons.Collection, error)
	SetAddons(ctx context.Context, authKey, email string, collection addons.Collection) error
}

// ManifestFetcher retrieves manifests on behalf of browser clients
type ManifestFetcher interface {
	FetchManifest(ctx context.Context, transportURL string) (*addons.Manifest, error)
}

// Options configures the proxy server
type Options struct {
	Upstream       Upstream
	Manifests      ManifestFetcher
	AllowedOrigins []string
	RateLimit      float64 // Requests per second per client IP
	RateBurst      int
	BodyLimit      string // e.g. "2M"
	Logger         *log.Logger
}

// Server is the HTTP proxy between browser clients and the platform
type Server struct {
	echo      *echo.Echo
	upstream  Upstream
	manifests ManifestFetcher
	log       *log.Logger
}

// New builds the server and registers its routes
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}
	if opts.BodyLimit == "" {
		opts.BodyLimit = "2M"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:      e,
		upstream:  opts.Upstream,
		manifests: opts.Manifests,
		log:       opts.Logger,
	}
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			s.log.Error("Panic recovered", "path", c.Request().URL.Path, "error", err, "stack", string(stack))
			return err
		},
	}))
	e.Use(s.requestLogger())
	e.Use(securityHeaders())
	e.Use(cors(opts.AllowedOrigins))
	e.Use(middleware.BodyLimit(opts.BodyLimit))
	e.Use(rateLimiter(opts.RateLimit, opts.RateBurst))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.healthz)

	api := s.echo.Group("/api")
	api.POST("/login", s.login)
	api.POST("/addons/get", s.getAddons)
	api.POST("/addons/set", s.setAddons)
	api.GET("/manifest", s.manifest)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Proxy listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("Shutting down proxy")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
