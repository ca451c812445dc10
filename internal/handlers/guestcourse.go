package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/services"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type GuestCourseHandler struct {
	log          *logger.Logger
	guestService services.GuestCourseService
}

func NewGuestCourseHandler(log *logger.Logger, guestService services.GuestCourseService) *GuestCourseHandler {
	return &GuestCourseHandler{
		log:          log.With("handler", "GuestCourseHandler"),
		guestService: guestService,
	}
}

func (h *GuestCourseHandler) GetGuestCourse(c *gin.Context) {
	record, err := h.guestService.ReadGuestCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidArgument):
			RespondError(c, http.StatusBadRequest, "bad_request", err)
		case errors.Is(err, apperrors.ErrNotFound):
			RespondError(c, http.StatusNotFound, "course_not_found", err)
		default:
			h.log.Error("GetGuestCourse failed", "error", err)
			RespondError(c, http.StatusInternalServerError, "load_course_failed", err)
		}
		return
	}
	RespondOK(c, record)
}

type beginJobRequest struct {
	CourseID string `json:"courseId"`
	Prompt   string `json:"prompt"`
}

func (h *GuestCourseHandler) BeginJob(c *gin.Context) {
	var req beginJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	courseID, err := h.guestService.BeginJob(c.Request.Context(), req.CourseID, req.Prompt)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		h.log.Error("BeginJob failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "begin_job_failed", err)
		return
	}
	RespondOK(c, gin.H{"courseId": courseID})
}

func (h *GuestCourseHandler) SaveStreamResult(c *gin.Context) {
	var course map[string]any
	if err := c.ShouldBindJSON(&course); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.guestService.SaveStreamResult(c.Request.Context(), c.Param("id"), course); err != nil {
		if errors.Is(err, apperrors.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		h.log.Error("SaveStreamResult failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "save_course_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

type saveSearchRequest struct {
	Query   string            `json:"query"`
	Results []types.WebSource `json:"results"`
}

func (h *GuestCourseHandler) SaveSearchResults(c *gin.Context) {
	var req saveSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.guestService.SaveSearchResults(c.Request.Context(), c.Param("id"), req.Query, req.Results); err != nil {
		if errors.Is(err, apperrors.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		h.log.Error("SaveSearchResults failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "save_sources_failed", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
