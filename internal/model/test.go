package model

import (
	"time"

	"gorm.io/gorm"
)

type AccessType string

const (
	AccessInvited AccessType = "invited"
	AccessPublic  AccessType = "public"
)

const (
	DefaultDuration     = 30
	DefaultPassingScore = 70
)

type Test struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	Title            string         `json:"title" gorm:"not null"`
	Description      string         `json:"description,omitempty" gorm:"type:text"`
	Category         string         `json:"category,omitempty"`
	Duration         int            `json:"duration" gorm:"not null"`      // minutes
	PassingScore     int            `json:"passing_score" gorm:"not null"` // percent
	AccessType       AccessType     `json:"access_type" gorm:"type:varchar(20);not null"`
	EnableProctoring bool           `json:"enable_proctoring"`
	Published        bool           `json:"published" gorm:"index"`
	CreatedBy        uint           `json:"created_by" gorm:"not null;index"`
	Questions        []Question     `json:"questions,omitempty" gorm:"foreignKey:TestID"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsOwnedBy reports whether the HR user authored the test.
func (t *Test) IsOwnedBy(userID uint) bool {
	return t.CreatedBy == userID
}
