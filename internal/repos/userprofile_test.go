package repos

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/courseforge-backend/internal/repos/testutil"
)

func TestUserProfileRepo_AddCourse(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewUserProfileRepo(tx, testutil.Logger(t))

	userID := "user-" + newID()
	courseID := newID()

	// First add creates the profile on the fly.
	added, err := repo.AddCourse(ctx, tx, userID, courseID)
	require.NoError(t, err)
	require.True(t, added)

	// Re-adding the same course is a no-op: the list stays a set and the
	// counter does not move.
	added, err = repo.AddCourse(ctx, tx, userID, courseID)
	require.NoError(t, err)
	require.False(t, added)

	profile, err := repo.GetByID(ctx, tx, userID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, 1, profile.CoursesCreated)

	var courses []string
	require.NoError(t, json.Unmarshal(profile.Courses, &courses))
	require.Equal(t, []string{courseID}, courses)

	// A different course extends the set.
	otherID := newID()
	added, err = repo.AddCourse(ctx, tx, userID, otherID)
	require.NoError(t, err)
	require.True(t, added)

	profile, err = repo.GetByID(ctx, tx, userID)
	require.NoError(t, err)
	require.Equal(t, 2, profile.CoursesCreated)
	require.NoError(t, json.Unmarshal(profile.Courses, &courses))
	require.Equal(t, []string{courseID, otherID}, courses)
}

func TestUserProfileRepo_EnsureKeepsExisting(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewUserProfileRepo(tx, testutil.Logger(t))

	userID := "user-" + newID()
	_, err := repo.AddCourse(ctx, tx, userID, newID())
	require.NoError(t, err)

	// Ensure against an existing profile must not reset its course list.
	profile, err := repo.GetByID(ctx, tx, userID)
	require.NoError(t, err)
	require.NoError(t, repo.Ensure(ctx, tx, profile))

	after, err := repo.GetByID(ctx, tx, userID)
	require.NoError(t, err)
	require.Equal(t, 1, after.CoursesCreated)
}
