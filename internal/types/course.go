package types

import (
	"time"

	"gorm.io/datatypes"
)

const (
	CourseStatusGenerating = "generating"
	CourseStatusReady      = "ready"
)

// Course is the durable per-user course record. The ID is the opaque,
// client-generated course identifier shared with every cache key, so a
// transfer and a still-finishing generation converge on the same row.
type Course struct {
	ID          string         `gorm:"column:id;primaryKey" json:"id"`
	UserID      string         `gorm:"column:user_id;not null;index" json:"user_id"`
	Title       string         `gorm:"column:title" json:"title"`
	Prompt      string         `gorm:"column:prompt" json:"prompt"`
	Slug        string         `gorm:"column:slug;index" json:"slug"`
	Description string         `gorm:"column:description" json:"description"`
	IsPublic    bool           `gorm:"column:is_public;not null;default:false" json:"is_public"`
	Thumbnail   *string        `gorm:"column:thumbnail" json:"thumbnail,omitempty"`
	Sources     datatypes.JSON `gorm:"column:sources;type:jsonb" json:"sources,omitempty"`
	CourseData  datatypes.JSON `gorm:"column:course_data;type:jsonb" json:"course_data"`
	Status      string         `gorm:"column:status;not null;default:generating" json:"status"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Course) TableName() string { return "course" }
