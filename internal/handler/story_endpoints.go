package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"story-graph-server/internal/interfaces"
	"story-graph-server/internal/middleware"
	"story-graph-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (h *StoryHandler) submitTurn(c *gin.Context) {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	var body turnRequest
	// пустое тело = новый корень без жанра
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.handleServiceError(c, fmt.Errorf("%w: malformed request body", models.ErrInvalidInput))
		return
	}

	if body.UserID != nil && *body.UserID != "" {
		bodyUserID, err := uuid.Parse(*body.UserID)
		if err != nil {
			h.handleServiceError(c, fmt.Errorf("%w: userId is not a valid UUID", models.ErrInvalidInput))
			return
		}
		if bodyUserID != userID {
			h.logger.Warn("Turn submitted for another user",
				zap.Stringer("tokenUserID", userID), zap.Stringer("bodyUserID", bodyUserID))
			h.handleServiceError(c, models.ErrForbidden)
			return
		}
	}

	req := interfaces.TurnRequest{
		UserID:      userID,
		ChoiceLabel: deref(body.ChoiceLabel),
		Genre:       deref(body.Genre),
		GenreID:     deref(body.GenreID),
	}
	if prev := strings.TrimSpace(deref(body.PreviousNodeID)); prev != "" {
		prevID, err := uuid.Parse(prev)
		if err != nil {
			h.handleServiceError(c, fmt.Errorf("%w: previousNodeId is not a valid UUID", models.ErrInvalidInput))
			return
		}
		req.PreviousNodeID = &prevID
	}

	result, err := h.service.ResolveTurn(c.Request.Context(), req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, turnResponse{
		Node:          result.Node,
		Choices:       result.Choices,
		Title:         result.Title,
		Reused:        result.Reused,
		ProgressSaved: result.ProgressErr == nil,
	})
}

func (h *StoryHandler) getStory(c *gin.Context) {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	view, err := h.service.GetStory(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	nodes := view.Nodes
	if nodes == nil {
		nodes = []*models.StoryNode{}
	}
	c.JSON(http.StatusOK, storyResponse{Progress: view.Progress, Nodes: nodes})
}

func (h *StoryHandler) restartStory(c *gin.Context) {
	userID, err := middleware.UserIDFromContext(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if err := h.service.RestartStory(c.Request.Context(), userID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StoryHandler) listGenres(c *gin.Context) {
	c.JSON(http.StatusOK, genresResponse{Genres: h.service.ListGenres()})
}
