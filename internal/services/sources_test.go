package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/courseforge-backend/internal/cache"
	"github.com/yungbote/courseforge-backend/internal/logger"
	apperrors "github.com/yungbote/courseforge-backend/internal/pkg/errors"
	"github.com/yungbote/courseforge-backend/internal/types"
)

func newSourcesFixture() (*cache.CourseCache, SourcesService) {
	cc := cache.NewCourseCache(cache.NewMemoryStore(), logger.NewNop())
	return cc, NewSourcesService(logger.NewNop(), cc)
}

func TestGetSources_AuthedEmpty(t *testing.T) {
	cc, svc := newSourcesFixture()
	ctx := context.Background()

	// Even with a cached record, authed callers get the empty result:
	// their sources live on the durable course row.
	if err := cc.SetSearch(ctx, "abc123", cache.SearchRecord{
		Query:   "q",
		Results: []types.WebSource{{URL: "https://example.com"}},
	}, cache.RecordTTL); err != nil {
		t.Fatalf("seed search: %v", err)
	}

	res, err := svc.GetSources(ctx, "abc123", true)
	if err != nil {
		t.Fatalf("GetSources: %v", err)
	}
	if res.From != "none" || len(res.Results) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGetSources_CacheHitSanitized(t *testing.T) {
	cc, svc := newSourcesFixture()
	ctx := context.Background()

	if err := cc.SetSearch(ctx, "abc123", cache.SearchRecord{
		Query: "rust ownership",
		Results: []types.WebSource{
			{Title: " The Book ", URL: " https://doc.rust-lang.org/book "},
			{Title: "No URL", URL: "   "},
		},
	}, cache.RecordTTL); err != nil {
		t.Fatalf("seed search: %v", err)
	}

	res, err := svc.GetSources(ctx, "abc123", false)
	if err != nil {
		t.Fatalf("GetSources: %v", err)
	}
	if res.From != "cache" || res.Query != "rust ownership" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Results) != 1 {
		t.Fatalf("entry without URL not dropped: %+v", res.Results)
	}
	if res.Results[0].URL != "https://doc.rust-lang.org/book" || res.Results[0].Title != "The Book" {
		t.Fatalf("fields not trimmed: %+v", res.Results[0])
	}
}

func TestGetSources_CacheMiss(t *testing.T) {
	_, svc := newSourcesFixture()

	res, err := svc.GetSources(context.Background(), "abc123", false)
	if err != nil {
		t.Fatalf("GetSources: %v", err)
	}
	if res.From != "cache" || len(res.Results) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGetSources_MissingCourseID(t *testing.T) {
	_, svc := newSourcesFixture()
	if _, err := svc.GetSources(context.Background(), " ", false); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
