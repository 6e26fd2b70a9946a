package http

import (
	"context"
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/labconnect/internal/config"
	"github.com/vovakirdan/labconnect/internal/core"
)

// SessionService is the gateway's view of the session registry.
type SessionService interface {
	CreateSession(ctx context.Context, requested string) (string, error)
	VerifySession(ctx context.Context, code string) (bool, error)
}

// NewServer builds the HTTP server: session gateway, websocket relay, health and metrics.
func NewServer(hub *core.Hub, sessions SessionService, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(MetricsMiddleware())
	router.Use(LoggerMiddleware(logger))

	router.GET("/", rootHandler)
	router.GET("/health", healthHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sessionHandlers := NewSessionHandlers(sessions, logger)
	api := router.Group("/api")
	{
		api.POST("/create-session", sessionHandlers.CreateSession)
		api.GET("/verify-session/:id", sessionHandlers.VerifySession)
	}

	// The websocket upgrade hijacks the connection, which gin's writer
	// refuses once the 101 is written, so /ws bypasses the router.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg.Relay, logger))
	mux.Handle("/", router)

	// The lab UI is served from anywhere.
	handler := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})(mux)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func rootHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "LabConnect Server is Running")
}

func healthHandler(c *gin.Context) {
	_, _ = fmt.Fprint(c.Writer, "ok")
}
