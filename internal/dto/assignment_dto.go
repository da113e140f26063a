package dto

import "time"

type InviteRequest struct {
	TestID uint     `json:"test_id" binding:"required"`
	Emails []string `json:"candidate_emails" binding:"required,min=1"`
}

type SkippedInvite struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

type InviteResponse struct {
	Message string               `json:"message"`
	Created []AssignmentResponse `json:"created"`
	Skipped []SkippedInvite      `json:"skipped"`
}

type AssignmentResponse struct {
	ID             uint       `json:"id"`
	TestID         uint       `json:"test_id"`
	CandidateEmail string     `json:"candidate_email"`
	CandidateID    *uint      `json:"candidate_id,omitempty"`
	CandidateName  string     `json:"candidate_name,omitempty"`
	AssignedBy     uint       `json:"assigned_by"`
	Origin         string     `json:"origin"`
	Status         string     `json:"status"`
	AccessToken    string     `json:"access_token,omitempty"`
	InvitationSent bool       `json:"invitation_sent"`
	Expired        bool       `json:"expired"`
	ExpiresAt      time.Time  `json:"expires_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type GroupedAssignmentRow struct {
	AssignmentID   uint   `json:"assignment_id"`
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	TestID         uint   `json:"test_id"`
	TestTitle      string `json:"test_title"`
	TestCategory   string `json:"test_category"`
	Status         string `json:"status"`
}

type GroupedAssignmentsResponse struct {
	Pending   []GroupedAssignmentRow `json:"pending"`
	Active    []GroupedAssignmentRow `json:"active"`
	Completed []GroupedAssignmentRow `json:"completed"`
}

// TokenTestResponse is returned when a candidate redeems an access token.
type TokenTestResponse struct {
	Test       TestResponse       `json:"test"`
	Assignment AssignmentResponse `json:"assignment"`
}

type StartTestResponse struct {
	Assignment AssignmentResponse `json:"assignment"`
	Test       TestResponse       `json:"test"`
	Resumed    bool               `json:"resumed"`
}
