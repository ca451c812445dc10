package types

import (
	"time"

	"gorm.io/datatypes"
)

// UserProfile carries the per-user course list. Courses is a JSON string
// array treated as a set: linking the same course twice is a no-op.
type UserProfile struct {
	ID             string         `gorm:"column:id;primaryKey" json:"id"`
	DisplayName    string         `gorm:"column:display_name" json:"display_name"`
	Email          string         `gorm:"column:email" json:"email"`
	AvatarURL      string         `gorm:"column:avatar_url" json:"avatar_url"`
	Courses        datatypes.JSON `gorm:"column:courses;type:jsonb" json:"courses"`
	CoursesCreated int            `gorm:"column:courses_created;not null;default:0" json:"courses_created"`
	CreatedAt      time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (UserProfile) TableName() string { return "user_profile" }
