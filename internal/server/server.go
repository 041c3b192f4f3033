package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/reportql/internal/engine"
	"github.com/roach88/reportql/internal/schema"
)

// ShutdownTimeout bounds how long in-flight requests may take once the
// server is asked to stop.
const ShutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// AllowOrigins lists the origins allowed to call the server from a
	// browser. Empty or "*" allows every origin.
	AllowOrigins []string

	// Logger receives request logs. Default: slog.Default().
	Logger *slog.Logger

	// IDs generates request ids for requests without a reqId.
	// Default: engine.UUIDv7Generator.
	IDs engine.RequestIDGenerator
}

// Server serves one registry and data source.
type Server struct {
	reg     *schema.Registry
	fetcher engine.Fetcher
	ids     engine.RequestIDGenerator
	logger  *slog.Logger
	router  *gin.Engine
}

// New returns a Server answering queries against reg with rows from
// fetcher. It fails on malformed origins.
func New(reg *schema.Registry, fetcher engine.Fetcher, opts Options) (*Server, error) {
	if err := checkOrigins(opts.AllowOrigins); err != nil {
		return nil, err
	}

	s := &Server{
		reg:     reg,
		fetcher: fetcher,
		ids:     opts.IDs,
		logger:  opts.Logger,
	}
	if s.ids == nil {
		s.ids = engine.UUIDv7Generator{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(corsMiddleware(opts.AllowOrigins))
	s.routes(r)
	s.router = r
	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", s.health)
	r.GET("/columns", s.columns)
	r.GET("/query", s.query)
}

// Handler returns the HTTP handler of s.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// engineFor returns an engine that answers with reqID, or with a generated
// id when reqID is empty.
func (s *Server) engineFor(reqID string) *engine.Engine {
	ids := s.ids
	if reqID != "" {
		ids = engine.NewFixedGenerator(reqID)
	}
	return engine.New(s.reg,
		engine.WithFetcher(s.fetcher),
		engine.WithRequestIDs(ids),
		engine.WithLogger(s.logger),
	)
}

func checkOrigins(origins []string) error {
	for _, o := range origins {
		if o == "*" {
			continue
		}
		if !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return fmt.Errorf("invalid origin %q: must be \"*\" or start with http:// or https://", o)
		}
	}
	return nil
}
