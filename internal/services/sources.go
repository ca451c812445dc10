package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/courseforge-backend/internal/cache"
	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type SourcesResult struct {
	CourseID string            `json:"courseId"`
	Query    string            `json:"query,omitempty"`
	Results  []types.WebSource `json:"results"`
	From     string            `json:"from"`
}

// SourcesService serves the web search context captured during guest
// generation. Authenticated flows never persist search metadata in the
// cache, so authed callers get a best-effort empty result.
type SourcesService interface {
	GetSources(ctx context.Context, courseID string, authed bool) (SourcesResult, error)
}

type sourcesService struct {
	log   *logger.Logger
	cache *cache.CourseCache
}

func NewSourcesService(log *logger.Logger, courseCache *cache.CourseCache) SourcesService {
	return &sourcesService{
		log:   log.With("service", "SourcesService"),
		cache: courseCache,
	}
}

func (s *sourcesService) GetSources(ctx context.Context, courseID string, authed bool) (SourcesResult, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return SourcesResult{}, fmt.Errorf("missing courseId: %w", apperrors.ErrInvalidArgument)
	}

	if authed {
		return SourcesResult{CourseID: courseID, Results: []types.WebSource{}, From: "none"}, nil
	}

	record, err := s.cache.GetSearch(ctx, courseID)
	if err != nil {
		return SourcesResult{}, err
	}
	if record == nil {
		return SourcesResult{CourseID: courseID, Results: []types.WebSource{}, From: "cache"}, nil
	}

	// Minimal sanitization: entries without a URL are dropped, the rest
	// are trimmed.
	safe := make([]types.WebSource, 0, len(record.Results))
	for _, r := range record.Results {
		url := strings.TrimSpace(r.URL)
		if url == "" {
			continue
		}
		safe = append(safe, types.WebSource{
			URL:         url,
			Title:       strings.TrimSpace(r.Title),
			Snippet:     strings.TrimSpace(r.Snippet),
			DisplayLink: strings.TrimSpace(r.DisplayLink),
		})
	}

	return SourcesResult{
		CourseID: courseID,
		Query:    record.Query,
		Results:  safe,
		From:     "cache",
	}, nil
}
