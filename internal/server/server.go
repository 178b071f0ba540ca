package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/handiism/releasedash/internal/model"
	"github.com/handiism/releasedash/internal/pipeline"
	"github.com/handiism/releasedash/internal/store"
	"github.com/handiism/releasedash/internal/view"
	"github.com/hashicorp/go-hclog"
)

// maxBlobSize bounds PUT /blob bodies.
const maxBlobSize = 32 << 20

// Source provides the releases served by the API.
type Source interface {
	Snapshot() []*model.Release
	RunCycle(ctx context.Context) (*pipeline.Report, error)
}

// Server exposes releases and the blob cache over HTTP.
type Server struct {
	source Source
	kv     store.KV
	logger hclog.Logger
	engine *gin.Engine
}

// New builds the router. source and kv may be nil, in which case the
// routes they back are not registered.
func New(source Source, kv store.KV, logger hclog.Logger) *Server {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := &Server{
		source: source,
		kv:     kv,
		logger: logger.Named("server"),
		engine: gin.New(),
	}
	s.engine.Use(gin.Recovery(), s.logRequests())
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)

	if s.source != nil {
		s.engine.GET("/releases", s.listReleases)
		s.engine.GET("/releases/:id", s.getRelease)
		s.engine.POST("/refresh", s.refresh)
	}

	if s.kv != nil {
		blob := s.engine.Group("/blob")
		{
			blob.GET("/:key", s.getBlob)
			blob.PUT("/:key", s.putBlob)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listReleases returns the filtered and sorted snapshot.
func (s *Server) listReleases(c *gin.Context) {
	filter, sort, limit, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	releases := filter.Apply(s.source.Snapshot())
	sort.Sort(releases)
	if limit > 0 && len(releases) > limit {
		releases = releases[:limit]
	}
	if releases == nil {
		releases = []*model.Release{}
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(releases),
		"releases": releases,
	})
}

func (s *Server) getRelease(c *gin.Context) {
	id := c.Param("id")
	for _, r := range s.source.Snapshot() {
		if r.ID == id {
			c.JSON(http.StatusOK, r)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "release not found"})
}

// refresh runs one cycle synchronously.
func (s *Server) refresh(c *gin.Context) {
	report, err := s.source.RunCycle(c.Request.Context())
	switch {
	case errors.Is(err, pipeline.ErrCycleRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
	default:
		c.JSON(http.StatusOK, report)
	}
}

func (s *Server) getBlob(c *gin.Context) {
	data, err := s.kv.Get(c.Request.Context(), c.Param("key"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "blob not found"})
		return
	}
	if err != nil {
		s.logger.Error("read blob", "key", c.Param("key"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

// putBlob overwrites the blob. The body must be valid JSON.
func (s *Server) putBlob(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBlobSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(data) > maxBlobSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "blob too large"})
		return
	}
	if !json.Valid(data) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body is not valid JSON"})
		return
	}

	if err := s.kv.Put(c.Request.Context(), c.Param("key"), data); err != nil {
		s.logger.Error("write blob", "key", c.Param("key"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "bytes": len(data)})
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// parseQuery reads Filter and sort parameters:
//
//	/releases?search=kora&genre=techno&min_tempo=120&since=2024-01-01&sort=-tempo&limit=50
func parseQuery(c *gin.Context) (view.Filter, view.SortState, int, error) {
	filter := view.Filter{
		Search: c.Query("search"),
		Genre:  c.Query("genre"),
		Key:    c.Query("key"),
	}

	var err error
	if filter.MinTempo, err = floatParam(c, "min_tempo"); err != nil {
		return filter, view.SortState{}, 0, err
	}
	if filter.MaxTempo, err = floatParam(c, "max_tempo"); err != nil {
		return filter, view.SortState{}, 0, err
	}
	minPop, err := intParam(c, "min_popularity")
	if err != nil {
		return filter, view.SortState{}, 0, err
	}
	filter.MinPopularity = minPop

	if v := strings.TrimSpace(c.Query("since")); v != "" {
		since, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return filter, view.SortState{}, 0, fmt.Errorf("since: expected YYYY-MM-DD")
		}
		filter.Since = since
	}

	sort := view.SortState{Field: view.FieldDate, Desc: true}
	if v, ok := c.GetQuery("sort"); ok {
		if sort, err = view.ParseSort(v); err != nil {
			return filter, sort, 0, err
		}
	}

	limit, err := intParam(c, "limit")
	if err != nil {
		return filter, sort, 0, err
	}
	return filter, sort, limit, nil
}

func floatParam(c *gin.Context, name string) (float64, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%s: expected a non-negative number", name)
	}
	return f, nil
}

func intParam(c *gin.Context, name string) (int, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: expected a non-negative integer", name)
	}
	return n, nil
}
