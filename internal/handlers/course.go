package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/requestdata"
	"github.com/yungbote/courseforge-backend/internal/services"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{
		log:           log.With("handler", "CourseHandler"),
		courseService: courseService,
	}
}

func (h *CourseHandler) respondServiceError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidArgument):
		RespondError(c, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, apperrors.ErrNotFound):
		RespondError(c, http.StatusNotFound, "course_not_found", err)
	default:
		h.log.Error(op+" failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}

func userID(c *gin.Context) (string, bool) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == "" {
		RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing user identity"))
		return "", false
	}
	return rd.UserID, true
}

type createCourseRequest struct {
	CourseID string `json:"courseId"`
	Prompt   string `json:"prompt"`
}

func (h *CourseHandler) CreatePlaceholder(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.courseService.CreatePlaceholder(c.Request.Context(), req.CourseID, uid, req.Prompt); err != nil {
		h.respondServiceError(c, "CreatePlaceholder", err)
		return
	}
	RespondOK(c, gin.H{"success": true, "courseId": req.CourseID})
}

type saveCompletedRequest struct {
	Prompt  string            `json:"prompt"`
	Course  map[string]any    `json:"course"`
	Sources []types.WebSource `json:"sources"`
}

func (h *CourseHandler) SaveCompleted(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req saveCompletedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	slug, err := h.courseService.SaveCompleted(c.Request.Context(), c.Param("id"), uid, req.Prompt, req.Course, req.Sources)
	if err != nil {
		h.respondServiceError(c, "SaveCompleted", err)
		return
	}
	RespondOK(c, gin.H{"success": true, "slug": slug})
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	course, err := h.courseService.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondServiceError(c, "GetCourse", err)
		return
	}
	RespondOK(c, course)
}

func (h *CourseHandler) ListUserCourses(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	courses, err := h.courseService.ListUserCourses(c.Request.Context(), uid)
	if err != nil {
		h.respondServiceError(c, "ListUserCourses", err)
		return
	}
	RespondOK(c, courses)
}

type renameRequest struct {
	Title string `json:"title"`
}

func (h *CourseHandler) Rename(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.courseService.Rename(c.Request.Context(), c.Param("id"), uid, req.Title); err != nil {
		h.respondServiceError(c, "Rename", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

type visibilityRequest struct {
	IsPublic bool `json:"isPublic"`
}

func (h *CourseHandler) SetVisibility(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.courseService.SetVisibility(c.Request.Context(), c.Param("id"), uid, req.IsPublic); err != nil {
		h.respondServiceError(c, "SetVisibility", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

type thumbnailPatchRequest struct {
	URL string `json:"url"`
}

func (h *CourseHandler) UpdateThumbnail(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req thumbnailPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.courseService.UpdateThumbnail(c.Request.Context(), c.Param("id"), uid, req.URL); err != nil {
		h.respondServiceError(c, "UpdateThumbnail", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

type sourcesPatchRequest struct {
	Sources []types.WebSource `json:"sources"`
}

func (h *CourseHandler) UpdateSources(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req sourcesPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := h.courseService.UpdateSources(c.Request.Context(), c.Param("id"), uid, req.Sources); err != nil {
		h.respondServiceError(c, "UpdateSources", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}

func (h *CourseHandler) Delete(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.courseService.Delete(c.Request.Context(), c.Param("id"), uid); err != nil {
		h.respondServiceError(c, "Delete", err)
		return
	}
	RespondOK(c, gin.H{"success": true})
}
