package dto

import "time"

type TestReport struct {
	TestID             uint      `json:"test_id"`
	Title              string    `json:"title"`
	Category           string    `json:"category,omitempty"`
	Published          bool      `json:"published"`
	PassingScore       int       `json:"passing_score"`
	CandidatesAssigned int       `json:"candidates_assigned"`
	CompletedCount     int       `json:"completed_count"`
	AvgScore           float64   `json:"avg_score"`
	PassRate           int       `json:"pass_rate"`
	CreatedAt          time.Time `json:"created_at"`
}

type ResultsSummary struct {
	TestTitle                    string  `json:"test_title"`
	TestCategory                 string  `json:"test_category"`
	TotalAssigned                int     `json:"total_assigned"`
	TotalCandidates              int     `json:"total_candidates"`
	Completed                    int     `json:"completed"`
	Pending                      int     `json:"pending"`
	InProgress                   int     `json:"in_progress"`
	AvgScore                     float64 `json:"avg_score"`
	PassRate                     int     `json:"pass_rate"`
	PassingScore                 int     `json:"passing_score"`
	QuestionCount                int     `json:"question_count"`
	Duration                     int     `json:"duration"`
	CandidatesWithAssignments    int     `json:"candidates_with_assignments"`
	CandidatesWithoutAssignments int     `json:"candidates_without_assignments"`
}

// ResultRow is one candidate's line in the results table. Score is nil until
// an attempt exists.
type ResultRow struct {
	AssignmentID    *uint      `json:"assignment_id,omitempty"`
	AttemptID       *uint      `json:"attempt_id,omitempty"`
	CandidateEmail  string     `json:"candidate_email"`
	CandidateName   string     `json:"candidate_name"`
	CandidateID     *uint      `json:"candidate_id,omitempty"`
	Status          string     `json:"status"`
	Score           *int       `json:"score"`
	Passed          *bool      `json:"passed"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	AssignedAt      *time.Time `json:"assigned_at,omitempty"`
	HasAssignment   bool       `json:"has_assignment"`
	HasAttempt      bool       `json:"has_attempt"`
}

type TestResultsResponse struct {
	TestID  uint           `json:"test_id"`
	Summary ResultsSummary `json:"summary"`
	Results []ResultRow    `json:"results"`
}

type MonitorSession struct {
	ID             string     `json:"id"`
	TestID         uint       `json:"test_id"`
	TestTitle      string     `json:"test_title"`
	CandidateEmail string     `json:"candidate_email"`
	CandidateName  string     `json:"candidate_name"`
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	Expired        bool       `json:"expired"`
	Violations     int        `json:"violations"`
	TimeRemaining  string     `json:"time_remaining"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	Score          *int       `json:"score,omitempty"`
}

type ProctoringStatusResponse struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
	URL       string `json:"url,omitempty"`
}
