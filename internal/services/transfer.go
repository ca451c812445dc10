package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/courseforge-backend/internal/cache"
	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/repos"
	"github.com/yungbote/courseforge-backend/internal/types"
)

// inlineImageThreshold separates thumbnail URLs from inline base64
// payloads: anything longer can't be a sane URL and must not be written
// to the durable store synchronously.
const inlineImageThreshold = 1000

// ThumbnailUploader pushes a decoded thumbnail into object storage and
// returns its public URL. gcp.BucketService satisfies it.
type ThumbnailUploader interface {
	UploadCourseImage(ctx context.Context, userID, courseID string, png []byte) (string, error)
}

type TransferConfig struct {
	PollInterval time.Duration
	PollAttempts int
}

func DefaultTransferConfig() TransferConfig {
	return TransferConfig{
		PollInterval: time.Second,
		PollAttempts: 10,
	}
}

// TransferService migrates a guest course out of the TTL'd cache into
// durable per-user storage when the user authenticates. The migration is
// an idempotent upsert keyed by course id, so racing the original
// generation or repeating a transfer converges instead of duplicating.
type TransferService interface {
	TransferGuestCourse(ctx context.Context, courseID, userID string) (string, error)
	// WaitUploads blocks until in-flight background thumbnail uploads
	// drain. Called on shutdown.
	WaitUploads()
}

type transferService struct {
	db         *gorm.DB
	log        *logger.Logger
	cache      *cache.CourseCache
	courseRepo repos.CourseRepo
	userRepo   repos.UserProfileRepo
	uploader   ThumbnailUploader
	cfg        TransferConfig

	// attempted remembers course ids already migrated by this process so
	// duplicate submissions skip the polling and writes. A guard against
	// log noise and wasted work, not a correctness requirement: the
	// underlying writes stay idempotent across processes.
	attempted sync.Map
	uploads   sync.WaitGroup
}

func NewTransferService(db *gorm.DB, log *logger.Logger, courseCache *cache.CourseCache, courseRepo repos.CourseRepo, userRepo repos.UserProfileRepo, uploader ThumbnailUploader, cfg TransferConfig) TransferService {
	return &transferService{
		db:         db,
		log:        log.With("service", "TransferService"),
		cache:      courseCache,
		courseRepo: courseRepo,
		userRepo:   userRepo,
		uploader:   uploader,
		cfg:        cfg,
	}
}

func (s *transferService) TransferGuestCourse(ctx context.Context, courseID, userID string) (string, error) {
	courseID = strings.TrimSpace(courseID)
	userID = strings.TrimSpace(userID)
	if courseID == "" || userID == "" {
		return "", fmt.Errorf("courseId and userId required: %w", apperrors.ErrInvalidArgument)
	}
	log := s.log.With("course_id", courseID, "user_id", userID)

	if slug, ok := s.attempted.Load(courseID); ok {
		log.Debug("transfer already attempted this session, skipping")
		return slug.(string), nil
	}

	// The course might still be generating or mid-write if the user
	// navigated to login immediately. Poll until a non-empty title shows
	// the record is worth transferring.
	record, err := s.awaitReadableRecord(ctx, courseID)
	if err != nil {
		return "", err
	}

	title := cache.StringField(record, "courseTitle")
	description := cache.StringField(record, "courseDescription")
	log.Info("guest course record retrieved", "title", title)

	thumbnail := cache.StringField(record, "courseImage")
	if thumbnail == "" {
		thumbnail = cache.StringField(record, "courseThumbnail")
	}

	// Separate course content from transport metadata so only schema
	// fields reach durable storage.
	clean := make(map[string]any, len(record))
	for k, v := range record {
		switch k {
		case "id", "courseImage", "courseThumbnail", "sources":
			continue
		}
		clean[k] = v
	}
	payload, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encode course payload: %w", err)
	}

	var sourcesJSON datatypes.JSON
	if raw, ok := record["sources"]; ok {
		if encoded, err := json.Marshal(raw); err == nil {
			sourcesJSON = encoded
		}
	}

	var thumbURL *string
	pendingUpload := ""
	switch {
	case thumbnail == "":
	case strings.HasPrefix(thumbnail, "data:") || len(thumbnail) > inlineImageThreshold:
		// Inline image data. Keep it out of the synchronous write and
		// upload in the background; the durable record gets patched with
		// the URL once the upload lands.
		pendingUpload = thumbnail
	case strings.HasPrefix(thumbnail, "http://") || strings.HasPrefix(thumbnail, "https://"):
		thumbURL = &thumbnail
	default:
		// Short non-URL string: likely a truncated base64 fragment.
		log.Warn("invalid thumbnail format detected, skipping")
	}

	prompt := title
	if prompt == "" {
		prompt = "Generated Course"
	}
	slug := CourseSlug(title, courseID)

	course := &types.Course{
		ID:          courseID,
		UserID:      userID,
		Title:       title,
		Prompt:      prompt,
		Slug:        slug,
		Description: description,
		IsPublic:    false,
		Thumbnail:   thumbURL,
		Sources:     sourcesJSON,
		CourseData:  payload,
		Status:      types.CourseStatusReady,
	}
	if err := s.courseRepo.Upsert(ctx, nil, course); err != nil {
		return "", fmt.Errorf("persist transferred course: %w", err)
	}

	added, err := s.userRepo.AddCourse(ctx, nil, userID, courseID)
	if err != nil {
		// The course row exists; a later transfer attempt completes the
		// link. Never roll back partial progress.
		return "", fmt.Errorf("link course to user: %w", err)
	}
	log.Info("guest course transferred", "slug", slug, "newly_linked", added)

	if pendingUpload != "" {
		s.startThumbnailUpload(courseID, userID, pendingUpload)
	}

	s.attempted.Store(courseID, slug)
	return slug, nil
}

func (s *transferService) awaitReadableRecord(ctx context.Context, courseID string) (map[string]any, error) {
	for i := 0; i < s.cfg.PollAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.PollInterval):
			}
		}
		record, err := s.cache.GetCourse(ctx, courseID)
		if err != nil {
			s.log.Warn("guest course fetch failed", "course_id", courseID, "attempt", i+1, "error", err)
			continue
		}
		if record != nil && cache.StringField(record, "courseTitle") != "" {
			return record, nil
		}
	}
	return nil, fmt.Errorf("guest course %s not in cache or expired after retries: %w", courseID, apperrors.ErrNotFound)
}

func (s *transferService) startThumbnailUpload(courseID, userID, inline string) {
	log := s.log.With("course_id", courseID, "user_id", userID)
	if s.uploader == nil {
		log.Warn("no uploader configured, dropping inline thumbnail")
		return
	}

	s.uploads.Add(1)
	go func() {
		defer s.uploads.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		png, err := decodeBase64Image(inline)
		if err != nil {
			log.Warn("failed to decode inline thumbnail, skipping image", "error", err)
			return
		}
		url, err := s.uploader.UploadCourseImage(ctx, userID, courseID, png)
		if err != nil {
			log.Warn("failed to upload thumbnail, skipping image", "error", err)
			return
		}
		if err := s.courseRepo.PatchThumbnail(ctx, nil, courseID, url); err != nil {
			log.Warn("failed to patch thumbnail url", "error", err)
			return
		}
		log.Info("thumbnail uploaded and linked", "url", url)
	}()
}

func (s *transferService) WaitUploads() {
	s.uploads.Wait()
}

// decodeBase64Image accepts both raw base64 and data URLs.
func decodeBase64Image(data string) ([]byte, error) {
	raw := data
	if i := strings.IndexByte(raw, ','); i >= 0 {
		raw = raw[i+1:]
	}
	return base64.StdEncoding.DecodeString(raw)
}
