package model

import "time"

type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentActive    AssignmentStatus = "active"
	AssignmentCompleted AssignmentStatus = "completed"
)

// AssignmentOrigin records how the assignment came to exist: an HR invitation
// or a candidate starting a public test on their own.
type AssignmentOrigin string

const (
	OriginInvited AssignmentOrigin = "invited"
	OriginPublic  AssignmentOrigin = "public"
)

type Assignment struct {
	ID             uint             `gorm:"primarykey" json:"id"`
	TestID         uint             `json:"test_id" gorm:"not null;uniqueIndex:idx_assignment_test_email"`
	Test           Test             `json:"test,omitempty" gorm:"foreignKey:TestID"`
	CandidateEmail string           `json:"candidate_email" gorm:"not null;size:255;uniqueIndex:idx_assignment_test_email"`
	CandidateID    *uint            `json:"candidate_id,omitempty" gorm:"index"`
	Candidate      *User            `json:"candidate,omitempty" gorm:"foreignKey:CandidateID"`
	AssignedBy     uint             `json:"assigned_by" gorm:"not null;index"`
	Origin         AssignmentOrigin `json:"origin" gorm:"type:varchar(20);not null"`
	Status         AssignmentStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	AccessToken    string           `json:"access_token" gorm:"size:64;not null;uniqueIndex"`
	InvitationSent bool             `json:"invitation_sent"`
	ExpiresAt      time.Time        `json:"expires_at" gorm:"not null"`
	StartedAt      *time.Time       `json:"started_at,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (a *Assignment) IsExpired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && now.After(a.ExpiresAt)
}
