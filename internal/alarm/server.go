package alarm

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server exposes the emitter over HTTP: Prometheus exposition on /metrics,
// a health probe, and a JSON stats endpoint for debugging.
type Server struct {
	Engine *gin.Engine
	Addr   string

	emitter *Emitter
}

func NewServer(addr, mode string, emitter *Emitter, metrics *Metrics) *Server {
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	s := &Server{Engine: r, Addr: addr, emitter: emitter}

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/health", s.healthHandler)
	r.GET("/stats", s.statsHandler)

	return s
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"timestamp":        time.Now().Format(time.RFC3339),
		"generation_count": s.emitter.Snapshot().GenerationCount,
	})
}

func (s *Server) statsHandler(c *gin.Context) {
	snap := s.emitter.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"timestamp":             time.Now().Format(time.RFC3339),
		"generation_count":      snap.GenerationCount,
		"current_totals":        snap.Totals,
		"current_rates_per_10s": snap.RatesPer10s,
	})
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.Addr,
		Handler: s.Engine,
	}

	slog.Info("[Emitter] Starting HTTP server", "address", s.Addr)

	go func() {
		<-ctx.Done()
		slog.Info("[Emitter] Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("[Emitter] HTTP server forced to shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
