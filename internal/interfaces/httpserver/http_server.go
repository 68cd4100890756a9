package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"chat-server/internal/config"
	middleware "chat-server/internal/interfaces/httpserver/middlewares"
	"chat-server/internal/interfaces/httpserver/routes/v1/chat"
	"chat-server/internal/interfaces/httpserver/routes/v1/profile"
	"chat-server/internal/interfaces/httpserver/routes/v1/sessions"
)

type HTTPServer struct {
	engine       *gin.Engine
	chatRoute    *chat.ChatRoute
	sessionRoute *sessions.SessionRoute
	profileRoute *profile.ProfileRoute
	config       *config.Config
	db           *gorm.DB
	registered   bool
}

func NewHTTPServer(
	chatRoute *chat.ChatRoute,
	sessionRoute *sessions.SessionRoute,
	profileRoute *profile.ProfileRoute,
	cfg *config.Config,
	db *gorm.DB,
	logger zerolog.Logger,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	server := HTTPServer{
		engine:       gin.New(),
		chatRoute:    chatRoute,
		sessionRoute: sessionRoute,
		profileRoute: profileRoute,
		config:       cfg,
		db:           db,
	}
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	server.engine.Use(middleware.LoggingMiddleware(logger))
	server.engine.Use(middleware.MetricsMiddleware())
	server.engine.Use(middleware.CORSMiddleware())

	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness requires a live database connection.
	server.engine.GET("/readyz", func(c *gin.Context) {
		sqlDB, err := server.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	return &server
}

// Engine exposes the underlying router, used by tests.
func (s *HTTPServer) Engine() *gin.Engine {
	s.registerRoutes()
	return s.engine
}

func (s *HTTPServer) registerRoutes() {
	if s.registered {
		return
	}
	s.registered = true
	root := s.engine.Group("/")
	s.chatRoute.RegisterRouter(root)
	s.sessionRoute.RegisterRouter(root)
	s.profileRoute.RegisterRouter(root)
}

func (s *HTTPServer) Run() error {
	s.registerRoutes()
	return s.engine.Run(fmt.Sprintf(":%d", s.config.HTTPPort))
}
