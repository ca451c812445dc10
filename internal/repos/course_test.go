package repos

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/courseforge-backend/internal/repos/testutil"
	"github.com/yungbote/courseforge-backend/internal/types"
)

func TestCourseRepo_UpsertIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCourseRepo(tx, testutil.Logger(t))

	courseID := newID()
	course := &types.Course{
		ID:         courseID,
		UserID:     "user-1",
		Title:      "Intro to Rust",
		Prompt:     "Intro to Rust",
		Slug:       "intro-to-rust-" + courseID,
		CourseData: datatypes.JSON(`{"courseTitle":"Intro to Rust"}`),
		Status:     types.CourseStatusReady,
	}
	require.NoError(t, repo.Upsert(ctx, nil, course))

	// Second upsert with changed fields converges on the same row.
	course.Title = "Intro to Rust, 2nd ed"
	require.NoError(t, repo.Upsert(ctx, nil, course))

	var count int64
	require.NoError(t, tx.Model(&types.Course{}).Where("id = ?", courseID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	got, err := repo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Intro to Rust, 2nd ed", got.Title)
}

func TestCourseRepo_GetByIDMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewCourseRepo(tx, testutil.Logger(t))

	got, err := repo.GetByID(context.Background(), nil, "nope")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCourseRepo_Patches(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCourseRepo(tx, testutil.Logger(t))

	courseID := newID()
	require.NoError(t, repo.Upsert(ctx, nil, &types.Course{
		ID:         courseID,
		UserID:     "user-1",
		Title:      "T",
		Slug:       courseID,
		CourseData: datatypes.JSON(`{}`),
		Status:     types.CourseStatusGenerating,
	}))

	require.NoError(t, repo.PatchThumbnail(ctx, nil, courseID, "https://cdn.example.com/img.png"))
	require.NoError(t, repo.PatchSources(ctx, nil, courseID, datatypes.JSON(`[{"url":"https://example.com"}]`)))
	require.NoError(t, repo.Rename(ctx, nil, courseID, "Renamed"))
	require.NoError(t, repo.SetVisibility(ctx, nil, courseID, true))

	got, err := repo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Thumbnail)
	require.Equal(t, "https://cdn.example.com/img.png", *got.Thumbnail)
	require.Equal(t, "Renamed", got.Title)
	require.True(t, got.IsPublic)

	require.NoError(t, repo.Delete(ctx, nil, courseID))
	got, err = repo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCourseRepo_ListByUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCourseRepo(tx, testutil.Logger(t))

	userID := "user-" + newID()
	for i := 0; i < 3; i++ {
		id := newID()
		require.NoError(t, repo.Upsert(ctx, nil, &types.Course{
			ID:         id,
			UserID:     userID,
			Slug:       id,
			CourseData: datatypes.JSON(`{}`),
			Status:     types.CourseStatusReady,
		}))
	}

	courses, err := repo.ListByUser(ctx, nil, userID)
	require.NoError(t, err)
	require.Len(t, courses, 3)
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
