package server

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/spacesedan/newspulse/internal/auth"
	"github.com/spacesedan/newspulse/internal/models"
	"github.com/spacesedan/newspulse/internal/store"
)

// EnqueueFunc schedules one ingestion run. The HTTP layer never runs the
// pipeline itself.
type EnqueueFunc func(ctx context.Context, req models.RunRequest) error

type Server struct {
	store         *store.Store
	auth          *auth.Service
	serviceTokens *auth.ServiceTokenVerifier
	enqueue       EnqueueFunc
}

func NewServer(st *store.Store, authSvc *auth.Service, serviceTokens *auth.ServiceTokenVerifier, enqueue EnqueueFunc) *Server {
	return &Server{
		store:         st,
		auth:          authSvc,
		serviceTokens: serviceTokens,
		enqueue:       enqueue,
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/news", s.ListNews)
		v1.GET("/news/trending", s.ListTrending)
		v1.GET("/categories", s.ListCategories)

		v1.POST("/users/register", s.Register)
		v1.POST("/users/login", s.Login)

		scheduler := v1.Group("/scheduler")
		scheduler.Use(s.RequireServiceToken())
		scheduler.POST("/fetch-news", s.TriggerIngestion)

		admin := v1.Group("/admin")
		admin.Use(s.RequireUserToken())
		admin.DELETE("/trending/:uuid", s.RemoveTrending)
	}

	return router
}
