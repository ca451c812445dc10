package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/courseforge-backend/internal/cache"
	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/repos"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type ResumeAction string

const (
	// ActionResume means the client should resubmit the returned prompt
	// to the generation stream under the same course id.
	ActionResume ResumeAction = "resume"
	// ActionNone means there is nothing to restart: either the course is
	// already complete or no recoverable prompt exists.
	ActionNone ResumeAction = "none"
)

type ResumeQuery struct {
	CourseID string
	// LocalPrompt is the prompt the client held in session state, empty
	// when the session is new.
	LocalPrompt string
	// UserID is empty for guests.
	UserID string
}

type ResumeDecision struct {
	Action ResumeAction `json:"action"`
	Prompt string       `json:"prompt,omitempty"`
}

// ResumeService arbitrates whether an interrupted generation should be
// restarted. Resuming reuses the original course id, so a concurrently
// finishing first attempt and the resumed attempt converge on the same
// cache keys and the stream's last-write-wins settles the content.
type ResumeService interface {
	Resolve(ctx context.Context, q ResumeQuery) (ResumeDecision, error)
}

type resumeService struct {
	db         *gorm.DB
	log        *logger.Logger
	cache      *cache.CourseCache
	courseRepo repos.CourseRepo
}

func NewResumeService(db *gorm.DB, log *logger.Logger, courseCache *cache.CourseCache, courseRepo repos.CourseRepo) ResumeService {
	return &resumeService{
		db:         db,
		log:        log.With("service", "ResumeService"),
		cache:      courseCache,
		courseRepo: courseRepo,
	}
}

func (s *resumeService) Resolve(ctx context.Context, q ResumeQuery) (ResumeDecision, error) {
	courseID := strings.TrimSpace(q.CourseID)
	if courseID == "" {
		return ResumeDecision{}, fmt.Errorf("missing courseId: %w", apperrors.ErrInvalidArgument)
	}

	// The client's own session state wins: it proves this browser started
	// the job and the stream never reported completion.
	if prompt := strings.TrimSpace(q.LocalPrompt); prompt != "" {
		return ResumeDecision{Action: ActionResume, Prompt: prompt}, nil
	}

	// New device or session. For authenticated users a ready durable
	// record means there is nothing to do.
	if q.UserID != "" {
		course, err := s.courseRepo.GetByID(ctx, nil, courseID)
		if err != nil {
			return ResumeDecision{}, fmt.Errorf("check durable record: %w", err)
		}
		if course != nil && course.Status == types.CourseStatusReady {
			return ResumeDecision{Action: ActionNone}, nil
		}
	}

	meta, err := s.cache.GetMeta(ctx, courseID)
	if err != nil {
		return ResumeDecision{}, err
	}
	record, err := s.cache.GetCourse(ctx, courseID)
	if err != nil {
		return ResumeDecision{}, err
	}

	prompt := ""
	if meta != nil {
		prompt = strings.TrimSpace(meta.Prompt)
	}
	if prompt == "" {
		prompt = strings.TrimSpace(cache.StringField(record, "prompt"))
	}
	if prompt == "" {
		return ResumeDecision{Action: ActionNone}, nil
	}

	// A record that already carries content is treated as finished even
	// if status metadata disagrees; resubmitting would only rebill the
	// generation service for work that is done.
	if hasModules(record) {
		return ResumeDecision{Action: ActionNone}, nil
	}

	return ResumeDecision{Action: ActionResume, Prompt: prompt}, nil
}

func hasModules(record map[string]any) bool {
	if record == nil {
		return false
	}
	modules, ok := record["modules"].([]any)
	return ok && len(modules) > 0
}
