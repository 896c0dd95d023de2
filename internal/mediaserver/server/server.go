// Package server exposes an asset index over the media server HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/mmcdole/baldr/internal/domain"
	"github.com/mmcdole/baldr/internal/mediauri"
	"github.com/mmcdole/baldr/internal/search"
)

// BasePath is where the API is mounted
const BasePath = "/api/media"

const shutdownTimeout = 5 * time.Second

// Server serves asset metadata from an index
type Server struct {
	index  domain.AssetIndex
	logger *slog.Logger
	router *gin.Engine
}

// Option configures a Server
type Option func(*options)

type options struct {
	compression int
}

// WithCompression gzips responses at level (see compress/gzip). Zero
// disables compression.
func WithCompression(level int) Option {
	return func(o *options) { o.compression = level }
}

// New creates a Server for index
func New(index domain.AssetIndex, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{index: index, logger: logger}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	if o.compression != 0 {
		router.Use(gzip.Gzip(o.compression))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group(BasePath)
	{
		api.GET("/get/asset", s.getAsset)
		api.GET("/stats/count", s.count)
		api.GET("/query", s.query)
	}
	s.router = router
	return s
}

// Handler returns the HTTP handler of the API
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("media server listening", "addr", addr, "base", BasePath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// getAsset handles /get/asset?ref=X and /get/asset?uuid=X
func (s *Server) getAsset(c *gin.Context) {
	scheme, authority := mediauri.SchemeRef, c.Query(mediauri.SchemeRef)
	if authority == "" {
		scheme, authority = mediauri.SchemeUUID, c.Query(mediauri.SchemeUUID)
	}
	if authority == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ref or uuid is required"})
		return
	}
	uri := mediauri.Compose(scheme, authority, "")
	if !mediauri.IsValid(uri) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media URI " + uri})
		return
	}

	raw, err := s.index.Fetch(c.Request.Context(), scheme, authority)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "no asset " + uri})
		return
	case err != nil:
		s.logger.Error("failed to fetch asset", "uri", uri, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch asset"})
		return
	}

	data, err := raw.MarshalJSON()
	if err != nil {
		s.logger.Error("failed to encode asset", "uri", uri, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode asset"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// count handles /stats/count
func (s *Server) count(c *gin.Context) {
	n, err := s.index.Count(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to count assets", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count assets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// query handles /query?search=text
func (s *Server) query(c *gin.Context) {
	entries, err := s.index.Titles(c.Request.Context())
	if err != nil {
		s.logger.Error("failed to list assets", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assets"})
		return
	}
	entries = search.RankTitles(c.Query("search"), entries)
	if entries == nil {
		entries = []domain.IndexEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
