// In file: cmd/assistant/server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	frontendOrigin  = "http://localhost:3000"
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-ID"
)

// newRouter builds the gin engine with CORS, request IDs and all routes.
func newRouter(h *ChatHandler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), requestID(), corsPolicy())

	engine.GET("/", h.HandleRoot)
	engine.POST("/chat", h.HandleChat)
	engine.GET("/test/", h.HandleTest)
	engine.GET("/test/:city", h.HandleTest)
	engine.GET("/stats", h.HandleStats)
	return engine
}

// corsPolicy allows only the local frontend, with credentials. Preflights
// get every requested header back, since "*" is taken literally once
// credentials are allowed.
func corsPolicy() gin.HandlerFunc {
	policy := cors.New(cors.Config{
		AllowOrigins: []string{frontendOrigin},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept",
			"Authorization", "X-Requested-With", requestIDHeader,
		},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})

	return func(c *gin.Context) {
		requested := c.GetHeader("Access-Control-Request-Headers")
		if c.Request.Method != http.MethodOptions || requested == "" || c.GetHeader("Origin") != frontendOrigin {
			policy(c)
			return
		}
		original := c.Writer
		c.Writer = &allowHeadersWriter{ResponseWriter: original, allowHeaders: requested}
		defer func() { c.Writer = original }()
		policy(c)
	}
}

// allowHeadersWriter replaces Access-Control-Allow-Headers right before the
// preflight response is sent.
type allowHeadersWriter struct {
	gin.ResponseWriter
	allowHeaders string
}

func (w *allowHeadersWriter) WriteHeader(code int) {
	w.Header().Set("Access-Control-Allow-Headers", w.allowHeaders)
	w.ResponseWriter.WriteHeader(code)
}

func (w *allowHeadersWriter) WriteHeaderNow() {
	w.Header().Set("Access-Control-Allow-Headers", w.allowHeaders)
	w.ResponseWriter.WriteHeaderNow()
}

// requestID propagates or assigns an ID used to correlate log lines.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("👂 Assistant is listening on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen error: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("👋 Server exited gracefully.")
	return nil
}
