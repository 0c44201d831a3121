package handler

import (
	"errors"
	"net/http"

	"story-graph-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError переводит ошибку сервиса в HTTP-ответ.
// Детали 5xx ошибок только логируются.
func (h *StoryHandler) handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeBadRequest, Error: err.Error()}
	case errors.Is(err, models.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeUnauthorized, Error: "Unauthorized"}
	case errors.Is(err, models.ErrForbidden):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Error: "Acting on behalf of another user is not allowed"}
	case errors.Is(err, models.ErrNodeNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Error: "Previous story node not found"}
	case errors.Is(err, models.ErrGenerationParse):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeGenerationParse, Error: "The story could not be generated, please try again"}
	case errors.Is(err, models.ErrGenerationFailed):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeGenerationFailed, Error: "The story generator is unavailable, please try again"}
	case errors.Is(err, models.ErrPersistence):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodePersistence, Error: "The story could not be saved, please try again"}
	case errors.Is(err, models.ErrConfiguration):
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeConfiguration, Error: "The server is misconfigured"}
	default:
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Error: "An unexpected internal error occurred"}
	}

	if statusCode >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(statusCode, errResp)
}
