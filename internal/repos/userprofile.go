package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/courseforge-backend/internal/logger"
	"github.com/yungbote/courseforge-backend/internal/types"
)

type UserProfileRepo interface {
	// Ensure creates the profile row if missing; an existing row keeps its
	// course list and counters.
	Ensure(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) error
	GetByID(ctx context.Context, tx *gorm.DB, userID string) (*types.UserProfile, error)
	// AddCourse links a course into the user's list as a set-union and
	// bumps courses_created only when the id was newly added. Returns
	// whether the id was added.
	AddCourse(ctx context.Context, tx *gorm.DB, userID, courseID string) (bool, error)
}

type userProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProfileRepo(db *gorm.DB, baseLog *logger.Logger) UserProfileRepo {
	return &userProfileRepo{db: db, log: baseLog.With("repo", "UserProfileRepo")}
}

func (ur *userProfileRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ur.db
}

func (ur *userProfileRepo) Ensure(ctx context.Context, tx *gorm.DB, profile *types.UserProfile) error {
	if profile == nil || profile.ID == "" {
		return errors.New("profile with id required")
	}
	if profile.Courses == nil {
		profile.Courses = datatypes.JSON("[]")
	}
	return ur.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(profile).Error
}

func (ur *userProfileRepo) GetByID(ctx context.Context, tx *gorm.DB, userID string) (*types.UserProfile, error) {
	var results []*types.UserProfile
	if userID == "" {
		return nil, nil
	}
	if err := ur.conn(tx).WithContext(ctx).
		Where("id = ?", userID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (ur *userProfileRepo) AddCourse(ctx context.Context, tx *gorm.DB, userID, courseID string) (bool, error) {
	if userID == "" || courseID == "" {
		return false, errors.New("userID and courseID required")
	}

	added := false
	run := func(conn *gorm.DB) error {
		profile, err := ur.GetByID(ctx, conn, userID)
		if err != nil {
			return err
		}
		if profile == nil {
			profile = &types.UserProfile{ID: userID, Courses: datatypes.JSON("[]")}
			if err := ur.Ensure(ctx, conn, profile); err != nil {
				return err
			}
		}

		var courses []string
		if len(profile.Courses) > 0 {
			if err := json.Unmarshal(profile.Courses, &courses); err != nil {
				return fmt.Errorf("decode course list for user %s: %w", userID, err)
			}
		}
		for _, id := range courses {
			if id == courseID {
				return nil
			}
		}

		courses = append(courses, courseID)
		raw, err := json.Marshal(courses)
		if err != nil {
			return err
		}
		if err := conn.WithContext(ctx).
			Model(&types.UserProfile{}).
			Where("id = ?", userID).
			Updates(map[string]any{
				"courses":         raw,
				"courses_created": gorm.Expr("courses_created + 1"),
				"updated_at":      time.Now(),
			}).Error; err != nil {
			return err
		}
		added = true
		return nil
	}

	if tx != nil {
		return added, run(tx)
	}
	err := ur.db.WithContext(ctx).Transaction(func(conn *gorm.DB) error {
		return run(conn)
	})
	return added, err
}
