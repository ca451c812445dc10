package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/repos"
	"github.com/yungbote/courseforge-backend/internal/types"
)

// CourseService is the authenticated flow's durable course lifecycle: a
// placeholder row the instant a job starts, a full upsert when the
// stream finishes, and field-level patches in between.
type CourseService interface {
	CreatePlaceholder(ctx context.Context, courseID, userID, prompt string) error
	// SaveCompleted upserts the finished course and links it into the
	// user's course list. Returns the slug.
	SaveCompleted(ctx context.Context, courseID, userID, prompt string, course map[string]any, sources []types.WebSource) (string, error)
	GetCourse(ctx context.Context, slugOrID string) (*types.Course, error)
	ListUserCourses(ctx context.Context, userID string) ([]*types.Course, error)
	UpdateThumbnail(ctx context.Context, courseID, userID, url string) error
	UpdateSources(ctx context.Context, courseID, userID string, sources []types.WebSource) error
	Rename(ctx context.Context, courseID, userID, title string) error
	SetVisibility(ctx context.Context, courseID, userID string, isPublic bool) error
	Delete(ctx context.Context, courseID, userID string) error
}

// ThumbnailRemover deletes a course's stored thumbnail from object
// storage. gcp.BucketService satisfies it; nil disables cleanup.
type ThumbnailRemover interface {
	DeleteCourseImage(ctx context.Context, userID, courseID string) error
}

type courseService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
	userRepo   repos.UserProfileRepo
	thumbs     ThumbnailRemover
}

func NewCourseService(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, userRepo repos.UserProfileRepo, thumbs ThumbnailRemover) CourseService {
	return &courseService{
		db:         db,
		log:        log.With("service", "CourseService"),
		courseRepo: courseRepo,
		userRepo:   userRepo,
		thumbs:     thumbs,
	}
}

func (s *courseService) CreatePlaceholder(ctx context.Context, courseID, userID, prompt string) error {
	courseID = strings.TrimSpace(courseID)
	userID = strings.TrimSpace(userID)
	if courseID == "" || userID == "" {
		return fmt.Errorf("courseId and userId required: %w", apperrors.ErrInvalidArgument)
	}

	placeholder := map[string]any{
		"courseTitle":       "Generating...",
		"courseDescription": "Please wait",
		"modules":           []any{},
	}
	payload, err := json.Marshal(placeholder)
	if err != nil {
		return err
	}

	return s.courseRepo.Upsert(ctx, nil, &types.Course{
		ID:         courseID,
		UserID:     userID,
		Prompt:     prompt,
		Slug:       courseID,
		CourseData: payload,
		Status:     types.CourseStatusGenerating,
	})
}

func (s *courseService) SaveCompleted(ctx context.Context, courseID, userID, prompt string, course map[string]any, sources []types.WebSource) (string, error) {
	courseID = strings.TrimSpace(courseID)
	userID = strings.TrimSpace(userID)
	if courseID == "" || userID == "" {
		return "", fmt.Errorf("courseId and userId required: %w", apperrors.ErrInvalidArgument)
	}
	title := strings.TrimSpace(stringField(course, "courseTitle"))
	if title == "" {
		return "", fmt.Errorf("course has no title: %w", apperrors.ErrInvalidArgument)
	}

	payload, err := json.Marshal(course)
	if err != nil {
		return "", fmt.Errorf("encode course payload: %w", err)
	}
	var sourcesJSON datatypes.JSON
	if len(sources) > 0 {
		if sourcesJSON, err = json.Marshal(sources); err != nil {
			return "", err
		}
	}

	slug := CourseSlug(title, courseID)
	record := &types.Course{
		ID:          courseID,
		UserID:      userID,
		Title:       title,
		Prompt:      prompt,
		Slug:        slug,
		Description: stringField(course, "courseDescription"),
		Sources:     sourcesJSON,
		CourseData:  payload,
		Status:      types.CourseStatusReady,
	}
	if err := s.courseRepo.Upsert(ctx, nil, record); err != nil {
		return "", fmt.Errorf("persist completed course: %w", err)
	}
	if _, err := s.userRepo.AddCourse(ctx, nil, userID, courseID); err != nil {
		return "", fmt.Errorf("link course to user: %w", err)
	}
	return slug, nil
}

func (s *courseService) GetCourse(ctx context.Context, slugOrID string) (*types.Course, error) {
	id := CourseIDFromSlug(slugOrID)
	if id == "" {
		return nil, fmt.Errorf("missing courseId: %w", apperrors.ErrInvalidArgument)
	}
	course, err := s.courseRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("course %s: %w", id, apperrors.ErrNotFound)
	}
	return course, nil
}

func (s *courseService) ListUserCourses(ctx context.Context, userID string) ([]*types.Course, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("missing userId: %w", apperrors.ErrInvalidArgument)
	}
	return s.courseRepo.ListByUser(ctx, nil, userID)
}

func (s *courseService) UpdateThumbnail(ctx context.Context, courseID, userID, url string) error {
	if courseID == "" || url == "" {
		return fmt.Errorf("courseId and url required: %w", apperrors.ErrInvalidArgument)
	}
	if err := s.authorize(ctx, courseID, userID); err != nil {
		return err
	}
	return s.courseRepo.PatchThumbnail(ctx, nil, courseID, url)
}

func (s *courseService) UpdateSources(ctx context.Context, courseID, userID string, sources []types.WebSource) error {
	if courseID == "" {
		return fmt.Errorf("missing courseId: %w", apperrors.ErrInvalidArgument)
	}
	if err := s.authorize(ctx, courseID, userID); err != nil {
		return err
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	return s.courseRepo.PatchSources(ctx, nil, courseID, raw)
}

func (s *courseService) Rename(ctx context.Context, courseID, userID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("missing title: %w", apperrors.ErrInvalidArgument)
	}
	if err := s.authorize(ctx, courseID, userID); err != nil {
		return err
	}
	return s.courseRepo.Rename(ctx, nil, courseID, title)
}

func (s *courseService) SetVisibility(ctx context.Context, courseID, userID string, isPublic bool) error {
	if err := s.authorize(ctx, courseID, userID); err != nil {
		return err
	}
	return s.courseRepo.SetVisibility(ctx, nil, courseID, isPublic)
}

func (s *courseService) Delete(ctx context.Context, courseID, userID string) error {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return err
	}
	if course == nil || course.UserID != userID {
		return fmt.Errorf("course %s: %w", courseID, apperrors.ErrNotFound)
	}
	if err := s.courseRepo.Delete(ctx, nil, courseID); err != nil {
		return err
	}
	// Best effort: an orphaned object costs pennies, a failed delete must
	// not resurrect the course.
	if s.thumbs != nil && course.Thumbnail != nil {
		if err := s.thumbs.DeleteCourseImage(ctx, userID, courseID); err != nil {
			s.log.Warn("failed to delete course thumbnail object", "course_id", courseID, "error", err)
		}
	}
	return nil
}

// authorize hides other users' courses behind not-found.
func (s *courseService) authorize(ctx context.Context, courseID, userID string) error {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return err
	}
	if course == nil || course.UserID != userID {
		return fmt.Errorf("course %s: %w", courseID, apperrors.ErrNotFound)
	}
	return nil
}

func stringField(m map[string]any, field string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[field].(string); ok {
		return v
	}
	return ""
}
