package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/repos"
	"github.com/yungbote/courseforge-backend/internal/repos/testutil"
	"github.com/yungbote/courseforge-backend/internal/types"
)

func newCourseFixture(t *testing.T) (repos.CourseRepo, repos.UserProfileRepo, CourseService) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := logger.NewNop()
	courseRepo := repos.NewCourseRepo(tx, log)
	userRepo := repos.NewUserProfileRepo(tx, log)
	return courseRepo, userRepo, NewCourseService(tx, log, courseRepo, userRepo, nil)
}

func TestCreatePlaceholderThenSaveCompleted(t *testing.T) {
	courseRepo, userRepo, svc := newCourseFixture(t)
	ctx := context.Background()
	courseID := NewCourseID()
	userID := "user-" + NewCourseID()

	require.NoError(t, svc.CreatePlaceholder(ctx, courseID, userID, "Intro to Rust"))

	course, err := courseRepo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	require.NotNil(t, course)
	require.Equal(t, types.CourseStatusGenerating, course.Status)
	require.Equal(t, courseID, course.Slug)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(course.CourseData, &payload))
	require.Equal(t, "Generating...", payload["courseTitle"])

	slug, err := svc.SaveCompleted(ctx, courseID, userID, "Intro to Rust", map[string]any{
		"courseTitle":       "Intro to Rust",
		"courseDescription": "Memory safety",
		"modules":           []any{map[string]any{"title": "Ownership"}},
	}, []types.WebSource{{URL: "https://doc.rust-lang.org"}})
	require.NoError(t, err)
	require.Equal(t, "intro-to-rust-"+courseID, slug)

	course, err = courseRepo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	require.Equal(t, types.CourseStatusReady, course.Status)
	require.Equal(t, "Intro to Rust", course.Title)
	require.Equal(t, slug, course.Slug)
	require.NotEmpty(t, course.Sources)

	profile, err := userRepo.GetByID(ctx, nil, userID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, 1, profile.CoursesCreated)
}

func TestSaveCompleted_RequiresTitle(t *testing.T) {
	_, _, svc := newCourseFixture(t)
	_, err := svc.SaveCompleted(context.Background(), NewCourseID(), "user-1", "p", map[string]any{
		"courseDescription": "no title here",
	}, nil)
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}

func TestGetCourse_BySlugOrID(t *testing.T) {
	_, _, svc := newCourseFixture(t)
	ctx := context.Background()
	courseID := NewCourseID()
	userID := "user-" + NewCourseID()

	slug, err := svc.SaveCompleted(ctx, courseID, userID, "p", map[string]any{
		"courseTitle": "Intro to Rust",
	}, nil)
	require.NoError(t, err)

	bySlug, err := svc.GetCourse(ctx, slug)
	require.NoError(t, err)
	byID, err := svc.GetCourse(ctx, courseID)
	require.NoError(t, err)
	require.Equal(t, bySlug.ID, byID.ID)

	_, err = svc.GetCourse(ctx, "missing999")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCourseOwnership(t *testing.T) {
	_, _, svc := newCourseFixture(t)
	ctx := context.Background()
	courseID := NewCourseID()

	_, err := svc.SaveCompleted(ctx, courseID, "owner", "p", map[string]any{
		"courseTitle": "Private Course",
	}, nil)
	require.NoError(t, err)

	// A stranger's mutations read as not-found, never as forbidden.
	require.ErrorIs(t, svc.Rename(ctx, courseID, "stranger", "Hijacked"), apperrors.ErrNotFound)
	require.ErrorIs(t, svc.SetVisibility(ctx, courseID, "stranger", true), apperrors.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, courseID, "stranger"), apperrors.ErrNotFound)

	require.NoError(t, svc.Rename(ctx, courseID, "owner", "Renamed"))
	require.NoError(t, svc.Delete(ctx, courseID, "owner"))
}
