package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/courseforge-backend/internal/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type CourseRepo interface {
	// Upsert creates or replaces the course row keyed by its id. Calling
	// it twice with the same inputs is safe; created_at survives.
	Upsert(ctx context.Context, tx *gorm.DB, course *types.Course) error
	// GetByID returns nil when no row exists.
	GetByID(ctx context.Context, tx *gorm.DB, courseID string) (*types.Course, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Course, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Course, error)
	PatchThumbnail(ctx context.Context, tx *gorm.DB, courseID, url string) error
	PatchSources(ctx context.Context, tx *gorm.DB, courseID string, sources datatypes.JSON) error
	Rename(ctx context.Context, tx *gorm.DB, courseID, title string) error
	SetVisibility(ctx context.Context, tx *gorm.DB, courseID string, isPublic bool) error
	Delete(ctx context.Context, tx *gorm.DB, courseID string) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (cr *courseRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return cr.db
}

func (cr *courseRepo) Upsert(ctx context.Context, tx *gorm.DB, course *types.Course) error {
	if course == nil || course.ID == "" {
		return errors.New("course with id required")
	}
	course.UpdatedAt = time.Now()
	return cr.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "title", "prompt", "slug", "description",
				"is_public", "thumbnail", "sources", "course_data",
				"status", "updated_at",
			}),
		}).
		Create(course).Error
}

func (cr *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, courseID string) (*types.Course, error) {
	var results []*types.Course
	if courseID == "" {
		return nil, nil
	}
	if err := cr.conn(tx).WithContext(ctx).
		Where("id = ?", courseID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (cr *courseRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Course, error) {
	var results []*types.Course
	if slug == "" {
		return nil, nil
	}
	if err := cr.conn(tx).WithContext(ctx).
		Where("slug = ?", slug).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (cr *courseRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID string) ([]*types.Course, error) {
	var results []*types.Course
	if userID == "" {
		return results, nil
	}
	if err := cr.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *courseRepo) PatchThumbnail(ctx context.Context, tx *gorm.DB, courseID, url string) error {
	return cr.conn(tx).WithContext(ctx).
		Model(&types.Course{}).
		Where("id = ?", courseID).
		Updates(map[string]any{
			"thumbnail":  url,
			"updated_at": time.Now(),
		}).Error
}

func (cr *courseRepo) PatchSources(ctx context.Context, tx *gorm.DB, courseID string, sources datatypes.JSON) error {
	return cr.conn(tx).WithContext(ctx).
		Model(&types.Course{}).
		Where("id = ?", courseID).
		Updates(map[string]any{
			"sources":    sources,
			"updated_at": time.Now(),
		}).Error
}

func (cr *courseRepo) Rename(ctx context.Context, tx *gorm.DB, courseID, title string) error {
	return cr.conn(tx).WithContext(ctx).
		Model(&types.Course{}).
		Where("id = ?", courseID).
		Updates(map[string]any{
			"title":      title,
			"updated_at": time.Now(),
		}).Error
}

func (cr *courseRepo) SetVisibility(ctx context.Context, tx *gorm.DB, courseID string, isPublic bool) error {
	return cr.conn(tx).WithContext(ctx).
		Model(&types.Course{}).
		Where("id = ?", courseID).
		Updates(map[string]any{
			"is_public":  isPublic,
			"updated_at": time.Now(),
		}).Error
}

func (cr *courseRepo) Delete(ctx context.Context, tx *gorm.DB, courseID string) error {
	return cr.conn(tx).WithContext(ctx).
		Where("id = ?", courseID).
		Delete(&types.Course{}).Error
}
