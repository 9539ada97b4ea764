package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mhui/eventbuddy/internal/core/ports"
	"github.com/mhui/eventbuddy/internal/core/usecase"
	log "github.com/sirupsen/logrus"
)

// ServerArgs contain the mandatory arguments for the HTTP server.
type ServerArgs struct {
	// Events is the event lifecycle service.
	Events *usecase.EventService

	// Chat is the per-event chat service.
	Chat *usecase.ChatService

	// Users is the profile store.
	Users ports.UserStore
}

// Server is the HTTP/SSE transport in front of the core services.
type Server struct {
	events *usecase.EventService
	chat   *usecase.ChatService
	users  ports.UserStore
	engine *gin.Engine
}

// NewServer creates a new Server with all routes registered.
func NewServer(args ServerArgs) (*Server, error) {
	if args.Events == nil || args.Chat == nil || args.Users == nil {
		return nil, errors.New("events, chat and users are all mandatory")
	}
	s := &Server{
		events: args.Events,
		chat:   args.Chat,
		users:  args.Users,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	api := engine.Group("/api")
	{
		api.GET("/events", s.listEvents)
		api.GET("/events/feed", s.upcomingFeed)
		api.GET("/events/watch", s.watchEvents)
		api.GET("/events/:id", s.getEvent)
		api.GET("/events/:id/status", s.eventStatus)
		api.GET("/events/:id/messages", s.listMessages)
		api.GET("/events/:id/messages/watch", s.watchMessages)

		authed := api.Group("", requireActor())
		{
			authed.POST("/events", s.createEvent)
			authed.POST("/events/:id/join", s.joinEvent)
			authed.POST("/events/:id/exit", s.exitEvent)
			authed.POST("/events/:id/cancel", s.cancelEvent)
			authed.POST("/events/:id/messages", s.sendMessage)
			authed.GET("/schedule", s.mySchedule)
			authed.PUT("/users/me", s.saveUser)
			authed.PUT("/users/me/push-token", s.updatePushToken)
			authed.GET("/users/me", s.getUser)
		}
	}

	s.engine = engine
	return s, nil
}

// Handler exposes the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errs := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// actorHeader carries the id of the acting user. The mobile client owns
// identity; the server treats the id as opaque.
const actorHeader = "X-User-ID"

func requireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(actorHeader) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing " + actorHeader + " header"})
			return
		}
		c.Next()
	}
}

func actorID(c *gin.Context) string {
	return c.GetHeader(actorHeader)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Info("request handled")
	}
}
