package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/requestdata"
	"github.com/yungbote/courseforge-backend/internal/services"
)

type TransferHandler struct {
	log             *logger.Logger
	transferService services.TransferService
}

func NewTransferHandler(log *logger.Logger, transferService services.TransferService) *TransferHandler {
	return &TransferHandler{
		log:             log.With("handler", "TransferHandler"),
		transferService: transferService,
	}
}

type transferRequest struct {
	CourseID string `json:"courseId"`
}

func (h *TransferHandler) TransferGuestCourse(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == "" {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user identity"))
		return
	}

	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	slug, err := h.transferService.TransferGuestCourse(c.Request.Context(), req.CourseID, rd.UserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidArgument):
			RespondError(c, http.StatusBadRequest, "bad_request", err)
		case errors.Is(err, apperrors.ErrNotFound):
			RespondError(c, http.StatusNotFound, "course_not_found", err)
		default:
			h.log.Error("TransferGuestCourse failed", "course_id", req.CourseID, "error", err)
			RespondError(c, http.StatusInternalServerError, "transfer_failed", err)
		}
		return
	}

	RespondOK(c, gin.H{"success": true, "slug": slug})
}
