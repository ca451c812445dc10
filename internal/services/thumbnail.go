package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/courseforge-backend/internal/cache"
	"github.com/yungbote/courseforge-backend/internal/clients/gemini"
	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/pkg/retry"
)

// ImageGenerator renders a thumbnail for a course topic. gemini.Client
// satisfies it; tests substitute a counter.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, description string) (gemini.ImageGeneration, error)
}

type ThumbnailResult struct {
	// Image is the base64-encoded PNG, no data: prefix.
	Image string
	// Cached reports a fast-path hit: the image already existed and no
	// generation ran for this call.
	Cached bool
}

// ThumbnailConfig holds the protocol's timing knobs. Tests shrink them;
// production uses the defaults, which bound the contended path to ~5s of
// waiting and a crashed holder to the lock TTL.
type ThumbnailConfig struct {
	LockTTL               time.Duration
	PollInterval          time.Duration
	PrelockPollAttempts   int
	ContendedPollAttempts int
	RecordTTL             time.Duration
	RetryInitialDelay     time.Duration
	RetryMax              int
}

func DefaultThumbnailConfig() ThumbnailConfig {
	return ThumbnailConfig{
		LockTTL:               cache.ThumbLockTTL,
		PollInterval:          500 * time.Millisecond,
		PrelockPollAttempts:   4,
		ContendedPollAttempts: 10,
		RecordTTL:             cache.RecordTTL,
		RetryInitialDelay:     time.Second,
		RetryMax:              2,
	}
}

// ThumbnailService guarantees effectively-once thumbnail generation per
// course id across any number of concurrent, stateless requests. All
// coordination runs through the shared cache; the only mutual exclusion
// primitive is a create-if-absent lock key with a TTL backstop.
type ThumbnailService interface {
	EnsureThumbnail(ctx context.Context, courseID string) (ThumbnailResult, error)
}

type thumbnailService struct {
	log       *logger.Logger
	cache     *cache.CourseCache
	generator ImageGenerator
	cfg       ThumbnailConfig
}

func NewThumbnailService(log *logger.Logger, courseCache *cache.CourseCache, generator ImageGenerator, cfg ThumbnailConfig) ThumbnailService {
	return &thumbnailService{
		log:       log.With("service", "ThumbnailService"),
		cache:     courseCache,
		generator: generator,
		cfg:       cfg,
	}
}

func (ts *thumbnailService) EnsureThumbnail(ctx context.Context, courseID string) (ThumbnailResult, error) {
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return ThumbnailResult{}, fmt.Errorf("missing courseId: %w", apperrors.ErrInvalidArgument)
	}
	log := ts.log.With("course_id", courseID)

	// During streaming the full course record may not exist yet; the meta
	// row is written at job start so generation can proceed immediately.
	course, err := ts.cache.GetCourse(ctx, courseID)
	if err != nil {
		return ThumbnailResult{}, err
	}
	meta, err := ts.cache.GetMeta(ctx, courseID)
	if err != nil {
		return ThumbnailResult{}, err
	}

	// Fast path: an existing image makes retries and duplicate calls
	// cheap, no lock interaction at all.
	if img := cache.StringField(course, "courseImage"); img != "" {
		return ThumbnailResult{Image: img, Cached: true}, nil
	}

	// Lock key present means another worker is presumably generating.
	// Wait briefly for its result; if nothing appears, proceed anyway —
	// the holder may have crashed and the TTL is the only recovery.
	held, err := ts.cache.ThumbLockHeld(ctx, courseID)
	if err != nil {
		return ThumbnailResult{}, err
	}
	if held {
		if img, ok := ts.waitForImage(ctx, courseID, ts.cfg.PrelockPollAttempts); ok {
			return ThumbnailResult{Image: img, Cached: true}, nil
		}
	}

	acquired, err := ts.cache.AcquireThumbLock(ctx, courseID, ts.cfg.LockTTL)
	if err != nil {
		return ThumbnailResult{}, err
	}
	if !acquired {
		// Someone else just took it. Wait longer for their image, then
		// fail closed: bounding contention to one extra attempt beats
		// unbounded duplicate generation.
		if img, ok := ts.waitForImage(ctx, courseID, ts.cfg.ContendedPollAttempts); ok {
			return ThumbnailResult{Image: img, Cached: true}, nil
		}
		return ThumbnailResult{}, fmt.Errorf("thumbnail generation for %s: %w", courseID, apperrors.ErrLockTimeout)
	}

	// Holding the lock from here. Release runs on every path below; a
	// failed delete is logged and left to the TTL.
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := ts.cache.ReleaseThumbLock(releaseCtx, courseID); err != nil {
			log.Warn("failed to release thumbnail lock", "error", err)
		}
	}()

	prompt := strings.TrimSpace(cache.StringField(course, "courseTitle"))
	if prompt == "" && meta != nil {
		prompt = strings.TrimSpace(meta.Prompt)
	}
	if prompt == "" {
		return ThumbnailResult{}, fmt.Errorf("missing prompt to generate thumbnail: %w", apperrors.ErrInvalidArgument)
	}
	description := strings.TrimSpace(cache.StringField(course, "courseDescription"))

	gen, err := retry.Do(ctx, func() (gemini.ImageGeneration, error) {
		return ts.generator.GenerateImage(ctx, prompt, description)
	}, retry.WithMaxRetries(ts.cfg.RetryMax), retry.WithInitialDelay(ts.cfg.RetryInitialDelay))
	if err != nil {
		log.Error("thumbnail generation failed", "error", err)
		return ThumbnailResult{}, fmt.Errorf("%w: %v", apperrors.ErrUpstreamFailure, err)
	}
	if gen.Base64PNG == "" {
		return ThumbnailResult{}, fmt.Errorf("%w: generator returned no image", apperrors.ErrUpstreamFailure)
	}

	// Merge, never overwrite: the generation stream may have finished and
	// written the full record while we were rendering. MergeCourse
	// re-reads the latest snapshot right before writing, which narrows
	// (not closes) that race.
	if _, err := ts.cache.MergeCourse(ctx, courseID, map[string]any{"courseImage": gen.Base64PNG}, ts.cfg.RecordTTL); err != nil {
		return ThumbnailResult{}, err
	}

	return ThumbnailResult{Image: gen.Base64PNG, Cached: false}, nil
}

// waitForImage polls the course record at the configured interval for up
// to attempts iterations, returning the image as soon as one appears.
func (ts *thumbnailService) waitForImage(ctx context.Context, courseID string, attempts int) (string, bool) {
	for i := 0; i < attempts; i++ {
		select {
		case <-ctx.Done():
			return "", false
		case <-time.After(ts.cfg.PollInterval):
		}
		course, err := ts.cache.GetCourse(ctx, courseID)
		if err != nil {
			ts.log.Warn("poll for thumbnail failed", "course_id", courseID, "error", err)
			continue
		}
		if img := cache.StringField(course, "courseImage"); img != "" {
			return img, true
		}
	}
	return "", false
}
