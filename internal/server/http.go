package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safesocial/safesocial-backend/internal/auth"
	"github.com/safesocial/safesocial-backend/internal/auth/middleware"
	authservice "github.com/safesocial/safesocial-backend/internal/auth/service"
	"github.com/safesocial/safesocial-backend/internal/conf"
	mediaservice "github.com/safesocial/safesocial-backend/internal/media/service"
	messageservice "github.com/safesocial/safesocial-backend/internal/message/service"
	"github.com/safesocial/safesocial-backend/internal/pkg/logger"
	postservice "github.com/safesocial/safesocial-backend/internal/post/service"
	userservice "github.com/safesocial/safesocial-backend/internal/user/service"
	"go.uber.org/zap"
)

// Services groups everything the router mounts.
type Services struct {
	Auth    *authservice.AuthService
	User    *userservice.UserService
	Post    *postservice.PostService
	Message *messageservice.MessageService
	Media   *mediaservice.MediaService
}

type HTTPServer struct {
	server *http.Server
	log    *logger.Logger
}

func NewHTTPServer(
	config *conf.Config,
	log *logger.Logger,
	jwtManager *auth.JWTManager,
	services *Services,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(LoggerMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	public := router.Group("/api/v1")
	authed := router.Group("/api/v1")
	authed.Use(middleware.JWTAuth(jwtManager, log))

	services.Auth.RegisterRoutes(public, authed)
	services.User.RegisterRoutes(public, authed)
	services.Post.RegisterRoutes(authed)
	services.Message.RegisterRoutes(authed)
	services.Media.RegisterRoutes(authed)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		log: log,
	}
}

func (s *HTTPServer) Start() error {
	s.log.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Stop(ctx context.Context) error {
	s.log.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}

func LoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		log.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
