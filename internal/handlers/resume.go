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

type ResumeHandler struct {
	log           *logger.Logger
	resumeService services.ResumeService
}

func NewResumeHandler(log *logger.Logger, resumeService services.ResumeService) *ResumeHandler {
	return &ResumeHandler{
		log:           log.With("handler", "ResumeHandler"),
		resumeService: resumeService,
	}
}

type resumeRequest struct {
	CourseID    string `json:"courseId"`
	LocalPrompt string `json:"localPrompt"`
}

func (h *ResumeHandler) ResolveResume(c *gin.Context) {
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	query := services.ResumeQuery{
		CourseID:    req.CourseID,
		LocalPrompt: req.LocalPrompt,
	}
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil {
		query.UserID = rd.UserID
	}

	decision, err := h.resumeService.Resolve(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		h.log.Error("ResolveResume failed", "course_id", req.CourseID, "error", err)
		RespondError(c, http.StatusInternalServerError, "resume_failed", err)
		return
	}

	RespondOK(c, decision)
}
