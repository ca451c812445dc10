package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/services"
)

type ThumbnailHandler struct {
	log              *logger.Logger
	thumbnailService services.ThumbnailService
}

func NewThumbnailHandler(log *logger.Logger, thumbnailService services.ThumbnailService) *ThumbnailHandler {
	return &ThumbnailHandler{
		log:              log.With("handler", "ThumbnailHandler"),
		thumbnailService: thumbnailService,
	}
}

type ensureThumbnailRequest struct {
	CourseID string `json:"courseId"`
}

type ensureThumbnailResponse struct {
	Success     bool   `json:"success"`
	CourseImage string `json:"courseImage"`
	Cached      bool   `json:"cached"`
}

func (h *ThumbnailHandler) EnsureThumbnail(c *gin.Context) {
	var req ensureThumbnailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	courseID := strings.TrimSpace(req.CourseID)

	result, err := h.thumbnailService.EnsureThumbnail(c.Request.Context(), courseID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidArgument):
			RespondError(c, http.StatusBadRequest, "missing_prompt", err)
		case errors.Is(err, apperrors.ErrLockTimeout):
			RespondError(c, http.StatusRequestTimeout, "thumbnail_timeout", err)
		case errors.Is(err, apperrors.ErrUpstreamFailure):
			RespondError(c, http.StatusBadGateway, "generator_failed", err)
		default:
			h.log.Error("EnsureThumbnail failed", "course_id", courseID, "error", err)
			RespondError(c, http.StatusInternalServerError, "ensure_thumbnail_failed", err)
		}
		return
	}

	RespondOK(c, ensureThumbnailResponse{
		Success:     true,
		CourseImage: result.Image,
		Cached:      result.Cached,
	})
}
