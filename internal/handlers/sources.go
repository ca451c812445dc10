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

type SourcesHandler struct {
	log            *logger.Logger
	sourcesService services.SourcesService
}

func NewSourcesHandler(log *logger.Logger, sourcesService services.SourcesService) *SourcesHandler {
	return &SourcesHandler{
		log:            log.With("handler", "SourcesHandler"),
		sourcesService: sourcesService,
	}
}

func (h *SourcesHandler) GetSources(c *gin.Context) {
	authed := false
	if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != "" {
		authed = true
	}

	result, err := h.sourcesService.GetSources(c.Request.Context(), c.Param("id"), authed)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidArgument) {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		h.log.Error("GetSources failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_sources_failed", err)
		return
	}

	RespondOK(c, result)
}
