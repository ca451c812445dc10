package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/courseforge-backend/internal/cache"
	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/types"
)

// GuestCourseService owns the cache-resident side of a generation job:
// the meta row written the instant a job starts, the evolving course
// record the stream writes into, and the search context. Everything here
// expires by TTL; the only durable copy is made by TransferService.
type GuestCourseService interface {
	// BeginJob registers a new generation job and returns its course id.
	// An empty courseID asks the service to mint one.
	BeginJob(ctx context.Context, courseID, prompt string) (string, error)
	// SaveStreamResult merge-writes the streamed course object so fields
	// written concurrently by other collaborators (courseImage) survive.
	SaveStreamResult(ctx context.Context, courseID string, course map[string]any) error
	SaveSearchResults(ctx context.Context, courseID, query string, results []types.WebSource) error
	// ReadGuestCourse accepts a bare id or a slug-suffixed id.
	ReadGuestCourse(ctx context.Context, courseID string) (map[string]any, error)
}

type guestCourseService struct {
	log   *logger.Logger
	cache *cache.CourseCache
}

func NewGuestCourseService(log *logger.Logger, courseCache *cache.CourseCache) GuestCourseService {
	return &guestCourseService{
		log:   log.With("service", "GuestCourseService"),
		cache: courseCache,
	}
}

// NewCourseID mints an opaque course id. Ids stay hyphen-free so slugs
// of the form {title}-{id} can be split from the right.
func NewCourseID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *guestCourseService) BeginJob(ctx context.Context, courseID, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("missing prompt: %w", apperrors.ErrInvalidArgument)
	}
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		courseID = NewCourseID()
	}

	meta := cache.Meta{
		Prompt:    prompt,
		StartedAt: time.Now().UnixMilli(),
	}
	if err := s.cache.SetMeta(ctx, courseID, meta, cache.RecordTTL); err != nil {
		return "", err
	}
	s.log.Info("guest generation job started", "course_id", courseID)
	return courseID, nil
}

func (s *guestCourseService) SaveStreamResult(ctx context.Context, courseID string, course map[string]any) error {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return fmt.Errorf("missing courseId: %w", apperrors.ErrInvalidArgument)
	}
	if len(course) == 0 {
		return fmt.Errorf("empty course payload: %w", apperrors.ErrInvalidArgument)
	}
	_, err := s.cache.MergeCourse(ctx, courseID, course, cache.RecordTTL)
	return err
}

func (s *guestCourseService) SaveSearchResults(ctx context.Context, courseID, query string, results []types.WebSource) error {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return fmt.Errorf("missing courseId: %w", apperrors.ErrInvalidArgument)
	}
	return s.cache.SetSearch(ctx, courseID, cache.SearchRecord{
		Query:   query,
		Results: results,
	}, cache.RecordTTL)
}

func (s *guestCourseService) ReadGuestCourse(ctx context.Context, courseID string) (map[string]any, error) {
	id := CourseIDFromSlug(courseID)
	if id == "" {
		return nil, fmt.Errorf("missing courseId: %w", apperrors.ErrInvalidArgument)
	}
	record, err := s.cache.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("course %s: %w", id, apperrors.ErrNotFound)
	}
	return record, nil
}
