package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/courseforge-backend/internal/cache"
	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/repos"
	"github.com/yungbote/courseforge-backend/internal/repos/testutil"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type fakeUploader struct {
	calls atomic.Int64
	url   string
	err   error
}

func (u *fakeUploader) UploadCourseImage(ctx context.Context, userID, courseID string, png []byte) (string, error) {
	u.calls.Add(1)
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

type transferFixture struct {
	tx         *gorm.DB
	cache      *cache.CourseCache
	courseRepo repos.CourseRepo
	userRepo   repos.UserProfileRepo
	uploader   *fakeUploader
	svc        TransferService
}

func newTransferFixture(t *testing.T, cfg TransferConfig) *transferFixture {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := logger.NewNop()
	cc := cache.NewCourseCache(cache.NewMemoryStore(), log)
	courseRepo := repos.NewCourseRepo(tx, log)
	userRepo := repos.NewUserProfileRepo(tx, log)
	uploader := &fakeUploader{url: "https://cdn.example.com/img.png"}
	return &transferFixture{
		tx:         tx,
		cache:      cc,
		courseRepo: courseRepo,
		userRepo:   userRepo,
		uploader:   uploader,
		svc:        NewTransferService(tx, log, cc, courseRepo, userRepo, uploader, cfg),
	}
}

func fastTransferConfig() TransferConfig {
	return TransferConfig{
		PollInterval: 10 * time.Millisecond,
		PollAttempts: 5,
	}
}

func TestTransferGuestCourse_Basic(t *testing.T) {
	f := newTransferFixture(t, fastTransferConfig())
	ctx := context.Background()
	courseID := NewCourseID()
	userID := "user-" + NewCourseID()

	require.NoError(t, f.cache.SetCourse(ctx, courseID, map[string]any{
		"id":                courseID,
		"courseTitle":       "Intro to Rust",
		"courseDescription": "Memory safety without garbage collection",
		"modules":           []any{map[string]any{"title": "Ownership"}},
		"sources":           []any{map[string]any{"url": "https://doc.rust-lang.org"}},
	}, cache.RecordTTL))

	slug, err := f.svc.TransferGuestCourse(ctx, courseID, userID)
	require.NoError(t, err)
	require.Equal(t, "intro-to-rust-"+courseID, slug)

	course, err := f.courseRepo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	require.NotNil(t, course)
	require.Equal(t, userID, course.UserID)
	require.Equal(t, "Intro to Rust", course.Title)
	require.Equal(t, "Intro to Rust", course.Prompt)
	require.Equal(t, types.CourseStatusReady, course.Status)
	require.False(t, course.IsPublic)

	// Transport fields are stripped from the durable payload.
	var payload map[string]any
	require.NoError(t, json.Unmarshal(course.CourseData, &payload))
	require.NotContains(t, payload, "id")
	require.NotContains(t, payload, "courseImage")
	require.NotContains(t, payload, "sources")
	require.Contains(t, payload, "modules")

	// Sources land in their own column.
	require.NotEmpty(t, course.Sources)

	// The user now owns exactly this course.
	profile, err := f.userRepo.GetByID(ctx, nil, userID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, 1, profile.CoursesCreated)
}

func TestTransferGuestCourse_Idempotent(t *testing.T) {
	f := newTransferFixture(t, fastTransferConfig())
	ctx := context.Background()
	courseID := NewCourseID()
	userID := "user-" + NewCourseID()

	require.NoError(t, f.cache.SetCourse(ctx, courseID, map[string]any{
		"courseTitle": "Intro to Rust",
	}, cache.RecordTTL))

	slug1, err := f.svc.TransferGuestCourse(ctx, courseID, userID)
	require.NoError(t, err)
	slug2, err := f.svc.TransferGuestCourse(ctx, courseID, userID)
	require.NoError(t, err)
	require.Equal(t, slug1, slug2)

	var count int64
	require.NoError(t, f.tx.Model(&types.Course{}).Where("id = ?", courseID).Count(&count).Error)
	require.EqualValues(t, 1, count)

	profile, err := f.userRepo.GetByID(ctx, nil, userID)
	require.NoError(t, err)
	require.Equal(t, 1, profile.CoursesCreated)
}

func TestTransferGuestCourse_PollsForPartialWrite(t *testing.T) {
	f := newTransferFixture(t, fastTransferConfig())
	ctx := context.Background()
	courseID := NewCourseID()
	userID := "user-" + NewCourseID()

	// The record exists but the stream hasn't written the title yet.
	require.NoError(t, f.cache.SetCourse(ctx, courseID, map[string]any{
		"courseDescription": "partial",
	}, cache.RecordTTL))

	go func() {
		time.Sleep(25 * time.Millisecond)
		_, _ = f.cache.MergeCourse(context.Background(), courseID, map[string]any{
			"courseTitle": "Late Title",
		}, cache.RecordTTL)
	}()

	slug, err := f.svc.TransferGuestCourse(ctx, courseID, userID)
	require.NoError(t, err)
	require.Equal(t, "late-title-"+courseID, slug)
}

func TestTransferGuestCourse_NotFound(t *testing.T) {
	f := newTransferFixture(t, TransferConfig{PollInterval: time.Millisecond, PollAttempts: 2})
	_, err := f.svc.TransferGuestCourse(context.Background(), NewCourseID(), "user-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTransferGuestCourse_InlineThumbnailUploads(t *testing.T) {
	f := newTransferFixture(t, fastTransferConfig())
	ctx := context.Background()
	courseID := NewCourseID()
	userID := "user-" + NewCourseID()

	inline := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	require.NoError(t, f.cache.SetCourse(ctx, courseID, map[string]any{
		"courseTitle": "Intro to Rust",
		"courseImage": inline,
	}, cache.RecordTTL))

	_, err := f.svc.TransferGuestCourse(ctx, courseID, userID)
	require.NoError(t, err)

	// The synchronous write never carries the inline payload.
	course, err := f.courseRepo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(course.CourseData, &payload))
	require.NotContains(t, payload, "courseImage")

	// The background upload patches the URL in.
	f.svc.WaitUploads()
	require.EqualValues(t, 1, f.uploader.calls.Load())

	course, err = f.courseRepo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	require.NotNil(t, course.Thumbnail)
	require.Equal(t, "https://cdn.example.com/img.png", *course.Thumbnail)
}

func TestTransferGuestCourse_URLThumbnailKept(t *testing.T) {
	f := newTransferFixture(t, fastTransferConfig())
	ctx := context.Background()
	courseID := NewCourseID()

	require.NoError(t, f.cache.SetCourse(ctx, courseID, map[string]any{
		"courseTitle": "Intro to Rust",
		"courseImage": "https://images.example.com/thumb.png",
	}, cache.RecordTTL))

	_, err := f.svc.TransferGuestCourse(ctx, courseID, "user-1")
	require.NoError(t, err)

	course, err := f.courseRepo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	require.NotNil(t, course.Thumbnail)
	require.Equal(t, "https://images.example.com/thumb.png", *course.Thumbnail)
	require.EqualValues(t, 0, f.uploader.calls.Load())
}

func TestTransferGuestCourse_GarbageThumbnailDiscarded(t *testing.T) {
	f := newTransferFixture(t, fastTransferConfig())
	ctx := context.Background()
	courseID := NewCourseID()

	require.NoError(t, f.cache.SetCourse(ctx, courseID, map[string]any{
		"courseTitle": "Intro to Rust",
		"courseImage": "nonsense-fragment",
	}, cache.RecordTTL))

	_, err := f.svc.TransferGuestCourse(ctx, courseID, "user-1")
	require.NoError(t, err)

	course, err := f.courseRepo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	require.Nil(t, course.Thumbnail)
	require.EqualValues(t, 0, f.uploader.calls.Load())
}

func TestTransferGuestCourse_FailedUploadKeepsCourse(t *testing.T) {
	f := newTransferFixture(t, fastTransferConfig())
	f.uploader.err = errors.New("bucket unavailable")
	ctx := context.Background()
	courseID := NewCourseID()

	inline := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	// Long raw base64 without a data: prefix also counts as inline.
	for len(inline) <= inlineImageThreshold {
		inline += inline
	}
	require.NoError(t, f.cache.SetCourse(ctx, courseID, map[string]any{
		"courseTitle": "Intro to Rust",
		"courseImage": inline,
	}, cache.RecordTTL))

	_, err := f.svc.TransferGuestCourse(ctx, courseID, "user-1")
	require.NoError(t, err)
	f.svc.WaitUploads()

	// The course row survives, just without a thumbnail.
	course, err := f.courseRepo.GetByID(ctx, nil, courseID)
	require.NoError(t, err)
	require.NotNil(t, course)
	require.Nil(t, course.Thumbnail)
}

func TestTransferGuestCourse_MissingArguments(t *testing.T) {
	f := newTransferFixture(t, fastTransferConfig())
	_, err := f.svc.TransferGuestCourse(context.Background(), "", "user-1")
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	_, err = f.svc.TransferGuestCourse(context.Background(), "abc123", "")
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}
