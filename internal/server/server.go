// Package server exposes the local backend over HTTP so that remote clients
// (or a second terminal) can take papers against it.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/abhisek/paperz/internal/backend"
	"github.com/abhisek/paperz/internal/paperapi"
)

// Options configures the HTTP server.
type Options struct {
	// AllowedOrigins lists extra CORS origins. Any http://localhost:PORT is
	// always allowed.
	AllowedOrigins []string

	// AccessLog enables gin's request logger.
	AccessLog bool
}

// Server serves the paper API over a backend.
type Server struct {
	backend *backend.Backend
	engine  *gin.Engine
}

// New builds the router.
func New(b *backend.Backend, opts Options) *Server {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.AccessLog {
		r.Use(gin.Logger())
	}

	allowed := make(map[string]bool, len(opts.AllowedOrigins))
	for _, o := range opts.AllowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin] || strings.HasPrefix(origin, "http://localhost:")
		},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", paperapi.UserHeader},
		ExposeHeaders: []string{paperapi.UserHeader},
		MaxAge:        12 * time.Hour,
	}))

	s := &Server{backend: b, engine: r}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api")
	{
		api.POST("/papers", s.importPaper)
		api.GET("/papers/:id", s.getPaper)
		api.GET("/papers/:id/user-papers", s.listUserPapers)

		api.GET("/user-papers/:id/answers", s.listAnswers)
		api.POST("/user-papers/:id/answers", s.submitAnswer)
		api.POST("/user-papers/:id/start", s.start)
		api.POST("/user-papers/:id/complete", s.complete)
		api.POST("/user-papers/:id/abandon", s.abandon)
		api.POST("/user-papers/:id/renew", s.renew)
	}

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// user returns the backend scoped to the request's user.
func (s *Server) user(c *gin.Context) *backend.Backend {
	return s.backend.ForUser(c.GetHeader(paperapi.UserHeader))
}

func (s *Server) importPaper(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty body"})
		return
	}
	p, err := s.backend.ImportPaper(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID, "title": p.Title, "total_items": p.TotalItems})
}

func (s *Server) getPaper(c *gin.Context) {
	p, err := s.user(c).GetPaperDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listUserPapers(c *gin.Context) {
	attempts, err := s.user(c).GetUserPapersByPaper(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

func (s *Server) listAnswers(c *gin.Context) {
	answers, err := s.user(c).GetUserPaperAnswers(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, answers)
}

func (s *Server) submitAnswer(c *gin.Context) {
	var req paperapi.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ExerciseItemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if err := s.user(c).SubmitAnswer(c.Request.Context(), c.Param("id"), req); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) start(c *gin.Context) {
	res, err := s.user(c).StartUserPaper(c.Request.Context(), c.Param("id"))
	respond(c, res, err)
}

func (s *Server) complete(c *gin.Context) {
	res, err := s.user(c).CompletePaper(c.Request.Context(), c.Param("id"))
	respond(c, res, err)
}

func (s *Server) abandon(c *gin.Context) {
	res, err := s.user(c).AbandonPaper(c.Request.Context(), c.Param("id"))
	respond(c, res, err)
}

func (s *Server) renew(c *gin.Context) {
	res, err := s.user(c).RenewPaper(c.Request.Context(), c.Param("id"))
	respond(c, res, err)
}

func respond(c *gin.Context, body any, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

// writeError maps backend errors onto status codes with an {"error": msg} body.
func writeError(c *gin.Context, err error) {
	var (
		nf  *paperapi.ErrNotFound
		rej *paperapi.ErrRejected
	)
	switch {
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.As(err, &rej):
		status := rej.StatusCode
		if status == 0 {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": rej.Message})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
