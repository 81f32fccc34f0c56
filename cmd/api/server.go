package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/PaulBabatuyi/chatlog/internal/gateway"
	"github.com/PaulBabatuyi/chatlog/internal/logging"
	"github.com/PaulBabatuyi/chatlog/internal/middleware"
	"github.com/PaulBabatuyi/chatlog/internal/search"
	"github.com/PaulBabatuyi/chatlog/internal/session"
)

// Pinger reports backend reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the gateways and infrastructure the HTTP handlers use.
type Server struct {
	auth     *gateway.Auth
	chat     *gateway.Chat
	sessions *session.Manager
	limiter  *middleware.LimiterStore
	search   *search.Client // nil disables /api/chat/search
	pingers  []Pinger
	log      logging.Logger
}

// newServer returns a ready-to-use Server.
func newServer(
	authGW *gateway.Auth,
	chatGW *gateway.Chat,
	sessions *session.Manager,
	limiter *middleware.LimiterStore,
	searchClient *search.Client,
	log logging.Logger,
	pingers ...Pinger,
) *Server {
	return &Server{
		auth:     authGW,
		chat:     chatGW,
		sessions: sessions,
		limiter:  limiter,
		search:   searchClient,
		pingers:  pingers,
		log:      log,
	}
}

// routes builds the gin engine.
func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(s.log),
		middleware.NoCache(),
		s.loadSession(),
		s.trackSession(),
	)

	r.GET("/healthz", s.healthz)

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", middleware.RateLimit(s.limiter), s.register)
	authRoutes.POST("/login", middleware.RateLimit(s.limiter), s.login)
	authRoutes.POST("/logout", s.logout)
	authRoutes.GET("/me", s.requireAuth(), s.me)
	authRoutes.GET("/profile", s.requireAuth(), s.profile)

	chatRoutes := api.Group("/chat", s.requireAuth())
	chatRoutes.POST("/message", s.postMessage)
	chatRoutes.GET("/history", s.history)
	if s.search != nil {
		chatRoutes.GET("/search", s.searchQuery)
	}
	chatRoutes.DELETE("/:sessionId", s.deleteBucket)

	return r
}
