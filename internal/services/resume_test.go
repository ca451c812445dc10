package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/courseforge-backend/internal/cache"
	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/repos"
	"github.com/yungbote/courseforge-backend/internal/repos/testutil"
	"github.com/yungbote/courseforge-backend/internal/types"
)

func newResumeFixture(t *testing.T) (*cache.CourseCache, repos.CourseRepo, ResumeService) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := logger.NewNop()
	cc := cache.NewCourseCache(cache.NewMemoryStore(), log)
	courseRepo := repos.NewCourseRepo(tx, log)
	return cc, courseRepo, NewResumeService(tx, log, cc, courseRepo)
}

func TestResolveResume_LocalPromptWins(t *testing.T) {
	_, _, svc := newResumeFixture(t)

	decision, err := svc.Resolve(context.Background(), ResumeQuery{
		CourseID:    "abc123",
		LocalPrompt: "  Intro to Rust  ",
	})
	require.NoError(t, err)
	require.Equal(t, ActionResume, decision.Action)
	require.Equal(t, "Intro to Rust", decision.Prompt)
}

func TestResolveResume_AuthedReadyCourse(t *testing.T) {
	cc, courseRepo, svc := newResumeFixture(t)
	ctx := context.Background()
	courseID := NewCourseID()

	require.NoError(t, courseRepo.Upsert(ctx, nil, &types.Course{
		ID:         courseID,
		UserID:     "user-1",
		Title:      "Done",
		Slug:       courseID,
		CourseData: datatypes.JSON(`{}`),
		Status:     types.CourseStatusReady,
	}))
	// Even a recoverable cache prompt must not restart a finished course.
	require.NoError(t, cc.SetMeta(ctx, courseID, cache.Meta{Prompt: "Done"}, cache.RecordTTL))

	decision, err := svc.Resolve(ctx, ResumeQuery{CourseID: courseID, UserID: "user-1"})
	require.NoError(t, err)
	require.Equal(t, ActionNone, decision.Action)
	require.Empty(t, decision.Prompt)
}

func TestResolveResume_CachePromptNoModules(t *testing.T) {
	cc, _, svc := newResumeFixture(t)
	ctx := context.Background()
	courseID := NewCourseID()

	require.NoError(t, cc.SetMeta(ctx, courseID, cache.Meta{Prompt: "Intro to Rust"}, cache.RecordTTL))

	decision, err := svc.Resolve(ctx, ResumeQuery{CourseID: courseID})
	require.NoError(t, err)
	require.Equal(t, ActionResume, decision.Action)
	require.Equal(t, "Intro to Rust", decision.Prompt)
}

func TestResolveResume_RecordPromptFallback(t *testing.T) {
	cc, _, svc := newResumeFixture(t)
	ctx := context.Background()
	courseID := NewCourseID()

	// No meta row; the prompt only survives inside the course record.
	require.NoError(t, cc.SetCourse(ctx, courseID, map[string]any{
		"prompt": "Intro to Rust",
	}, cache.RecordTTL))

	decision, err := svc.Resolve(ctx, ResumeQuery{CourseID: courseID})
	require.NoError(t, err)
	require.Equal(t, ActionResume, decision.Action)
	require.Equal(t, "Intro to Rust", decision.Prompt)
}

func TestResolveResume_ModulesPresentMeansDone(t *testing.T) {
	cc, _, svc := newResumeFixture(t)
	ctx := context.Background()
	courseID := NewCourseID()

	require.NoError(t, cc.SetMeta(ctx, courseID, cache.Meta{Prompt: "Intro to Rust"}, cache.RecordTTL))
	require.NoError(t, cc.SetCourse(ctx, courseID, map[string]any{
		"courseTitle": "Intro to Rust",
		"modules":     []any{map[string]any{"title": "Ownership"}},
	}, cache.RecordTTL))

	decision, err := svc.Resolve(ctx, ResumeQuery{CourseID: courseID})
	require.NoError(t, err)
	require.Equal(t, ActionNone, decision.Action)
}

func TestResolveResume_NothingRecoverable(t *testing.T) {
	_, _, svc := newResumeFixture(t)

	decision, err := svc.Resolve(context.Background(), ResumeQuery{CourseID: NewCourseID()})
	require.NoError(t, err)
	require.Equal(t, ActionNone, decision.Action)
}

func TestResolveResume_MissingCourseID(t *testing.T) {
	_, _, svc := newResumeFixture(t)
	_, err := svc.Resolve(context.Background(), ResumeQuery{})
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}
