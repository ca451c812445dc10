package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/courseforge-backend/internal/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

const (
	// RecordTTL is the lifetime of a guest course's cache rows. Every
	// merge-write resets it.
	RecordTTL = time.Hour
	// RecordTTLMax is the outer bound callers may rely on for any cache
	// row; nothing survives past it.
	RecordTTLMax = 24 * time.Hour
	// ThumbLockTTL bounds how long a crashed thumbnail worker can block
	// others. TTL expiry is the only liveness recovery for the lock.
	ThumbLockTTL = 30 * time.Second
)

// Meta is the minimal metadata written the moment a guest job starts, so
// thumbnail generation and resume can proceed before the full course
// record exists.
type Meta struct {
	Prompt    string `json:"prompt"`
	StartedAt int64  `json:"startedAt"`
}

// SearchRecord holds the web search context captured during generation.
type SearchRecord struct {
	Query   string            `json:"query"`
	Results []types.WebSource `json:"results"`
}

// thumbLock is the lock key's value. The key's existence is the lock;
// the timestamp exists for debugging, never for liveness decisions.
type thumbLock struct {
	AcquiredAt int64 `json:"acquiredAt"`
}

// CourseCache is the typed facade over the coordination cache. Course
// records are open maps: the streaming generator, the thumbnail
// coordinator and the transfer reader all write disjoint fields, and a
// typed struct would silently drop whatever fields this binary doesn't
// know about on the next read-merge-write.
type CourseCache struct {
	log   *logger.Logger
	store Store
}

func NewCourseCache(store Store, log *logger.Logger) *CourseCache {
	return &CourseCache{
		log:   log.With("service", "CourseCache"),
		store: store,
	}
}

// GetCourse returns the course record, or nil when the key is absent.
func (c *CourseCache) GetCourse(ctx context.Context, courseID string) (map[string]any, error) {
	var rec map[string]any
	ok, err := c.store.GetJSON(ctx, CourseKey(courseID), &rec)
	if err != nil {
		return nil, fmt.Errorf("get course record: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return rec, nil
}

func (c *CourseCache) SetCourse(ctx context.Context, courseID string, rec map[string]any, ttl time.Duration) error {
	if err := c.store.SetJSON(ctx, CourseKey(courseID), rec, ttl); err != nil {
		return fmt.Errorf("set course record: %w", err)
	}
	return nil
}

// MergeCourse re-reads the latest snapshot of the course record, merges
// the given fields over it and writes the result back with the TTL reset.
// When no record exists yet a minimal shell carrying the id is created.
// This narrows, but does not close, the lost-update window against a
// concurrent writer; the cache offers no compare-and-swap to close it.
func (c *CourseCache) MergeCourse(ctx context.Context, courseID string, fields map[string]any, ttl time.Duration) (map[string]any, error) {
	current, err := c.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = map[string]any{"id": courseID}
	}
	for k, v := range fields {
		current[k] = v
	}
	if err := c.SetCourse(ctx, courseID, current, ttl); err != nil {
		return nil, err
	}
	return current, nil
}

// GetMeta returns the job metadata, or nil when absent.
func (c *CourseCache) GetMeta(ctx context.Context, courseID string) (*Meta, error) {
	var meta Meta
	ok, err := c.store.GetJSON(ctx, MetaKey(courseID), &meta)
	if err != nil {
		return nil, fmt.Errorf("get course meta: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &meta, nil
}

func (c *CourseCache) SetMeta(ctx context.Context, courseID string, meta Meta, ttl time.Duration) error {
	if err := c.store.SetJSON(ctx, MetaKey(courseID), meta, ttl); err != nil {
		return fmt.Errorf("set course meta: %w", err)
	}
	return nil
}

// GetSearch returns the stored search record, or nil when absent.
func (c *CourseCache) GetSearch(ctx context.Context, courseID string) (*SearchRecord, error) {
	var rec SearchRecord
	ok, err := c.store.GetJSON(ctx, SearchKey(courseID), &rec)
	if err != nil {
		return nil, fmt.Errorf("get search record: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (c *CourseCache) SetSearch(ctx context.Context, courseID string, rec SearchRecord, ttl time.Duration) error {
	if err := c.store.SetJSON(ctx, SearchKey(courseID), rec, ttl); err != nil {
		return fmt.Errorf("set search record: %w", err)
	}
	return nil
}

// AcquireThumbLock attempts the create-if-absent lock write. True means
// this caller now holds the lock until it releases it or the TTL fires.
func (c *CourseCache) AcquireThumbLock(ctx context.Context, courseID string, ttl time.Duration) (bool, error) {
	ok, err := c.store.SetNX(ctx, ThumbLockKey(courseID), thumbLock{AcquiredAt: time.Now().UnixMilli()}, ttl)
	if err != nil {
		return false, fmt.Errorf("acquire thumb lock: %w", err)
	}
	return ok, nil
}

// ThumbLockHeld reports whether the lock key currently exists. Existence
// does not imply the holder is alive.
func (c *CourseCache) ThumbLockHeld(ctx context.Context, courseID string) (bool, error) {
	var lock thumbLock
	ok, err := c.store.GetJSON(ctx, ThumbLockKey(courseID), &lock)
	if err != nil {
		return false, fmt.Errorf("read thumb lock: %w", err)
	}
	return ok, nil
}

// ReleaseThumbLock deletes the lock key. Safe to call when the key is
// already gone.
func (c *CourseCache) ReleaseThumbLock(ctx context.Context, courseID string) error {
	if err := c.store.Del(ctx, ThumbLockKey(courseID)); err != nil {
		return fmt.Errorf("release thumb lock: %w", err)
	}
	return nil
}

// StringField reads a string-valued field from a course record, returning
// "" when the record is nil or the field is absent or not a string.
func StringField(rec map[string]any, field string) string {
	if rec == nil {
		return ""
	}
	if v, ok := rec[field].(string); ok {
		return v
	}
	return ""
}
