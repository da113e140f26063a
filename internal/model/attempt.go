package model

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in-progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// AnswerRecord is one graded answer stored inside the attempt row.
type AnswerRecord struct {
	QuestionID         string `json:"question_id"`
	SelectedOptions    []int  `json:"selected_options"`
	SelectedOptionText string `json:"selected_option_text,omitempty"`
	Correct            bool   `json:"correct"`
}

// Attempt is written once on submission. The (candidate_id, test_id) unique
// index is what guarantees a single attempt per candidate and test.
type Attempt struct {
	ID              uint                              `gorm:"primarykey" json:"id"`
	CandidateID     uint                              `json:"candidate_id" gorm:"not null;uniqueIndex:idx_attempt_candidate_test"`
	Candidate       User                              `json:"candidate,omitempty" gorm:"foreignKey:CandidateID"`
	TestID          uint                              `json:"test_id" gorm:"not null;uniqueIndex:idx_attempt_candidate_test;index"`
	Test            Test                              `json:"test,omitempty" gorm:"foreignKey:TestID"`
	Answers         datatypes.JSONSlice[AnswerRecord] `json:"answers"`
	Score           int                               `json:"score"`
	CorrectCount    int                               `json:"correct_count"`
	TotalQuestions  int                               `json:"total_questions"`
	Status          AttemptStatus                     `json:"status" gorm:"type:varchar(20);not null"`
	StartedAt       *time.Time                        `json:"started_at,omitempty"`
	SubmittedAt     time.Time                         `json:"submitted_at"`
	DurationSeconds int                               `json:"duration_seconds"`
	Violations      int                               `json:"violations"`
	CreatedAt       time.Time                         `json:"created_at"`
	UpdatedAt       time.Time                         `json:"updated_at"`
}
