package model

import "time"

type Role string

const (
	RoleHR        Role = "hr"
	RoleCandidate Role = "candidate"
)

func (r Role) Valid() bool {
	return r == RoleHR || r == RoleCandidate
}

type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"not null;uniqueIndex;size:255"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"type:varchar(20);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
