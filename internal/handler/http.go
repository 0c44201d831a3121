package handler

import (
	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type StoryHandler struct {
	service  interfaces.StoryService
	verifier *middleware.JWTVerifier
	logger   *zap.Logger
}

func NewStoryHandler(service interfaces.StoryService, verifier *middleware.JWTVerifier, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		service:  service,
		verifier: verifier,
		logger:   logger.Named("StoryHandler"),
	}
}

func (h *StoryHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(h.verifier, h.logger))
	{
		api.POST("/story/turns", h.submitTurn)
		api.GET("/story", h.getStory)
		api.DELETE("/story", h.restartStory)
		api.GET("/genres", h.listGenres)
	}
}
