// Package api serves the chat over HTTP: a JSON API for conversations and
// messages, per-client view sessions, a server-sent event stream and
// Prometheus metrics.
package api

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/gin-gonic/gin"
)

// DefaultPort is used when StartOpts.Port is not set.
const DefaultPort = 8080

// heartbeatInterval is how often an idle event stream sends a heartbeat.
const heartbeatInterval = 15 * time.Second

// StartOpts holds configuration for the API server.
type StartOpts struct {
	Service     *chat.Service
	Port        int
	SessionIdle time.Duration // defaults to DefaultSessionIdle
	Out         io.Writer
}

// Start launches the API server. It blocks until ctx is cancelled, then
// closes every session and shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Service == nil {
		return fmt.Errorf("api: service is required")
	}
	if opts.Port <= 0 {
		opts.Port = DefaultPort
	}
	if opts.SessionIdle <= 0 {
		opts.SessionIdle = DefaultSessionIdle
	}

	gin.SetMode(gin.ReleaseMode)
	sessions := newSessionRegistry(opts.Service)
	router := newRouter(opts.Service, sessions, heartbeatInterval)
	go sessions.sweep(ctx, opts.SessionIdle)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		sessions.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("api: shutdown: %v", err)
		}
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Buurtchat API running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

// newRouter builds the gin engine with every API route and /metrics.
func newRouter(svc *chat.Service, sessions *sessionRegistry, heartbeat time.Duration) *gin.Engine {
	m := newMetrics(svc, sessions)
	router := gin.New()
	router.Use(gin.Recovery(), m.middleware())
	router.GET("/metrics", m.handler())
	registerRoutes(router, svc, sessions, heartbeat)
	return router
}
