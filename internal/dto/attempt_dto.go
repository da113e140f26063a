package dto

import "time"

// AnswerInput identifies the chosen options either by position or, for
// single-choice clients, by the option text.
type AnswerInput struct {
	QuestionID      string `json:"question_id" binding:"required"`
	SelectedOptions []int  `json:"selected_options"`
	SelectedOption  string `json:"selected_option"`
}

type SubmitAttemptRequest struct {
	Answers    []AnswerInput `json:"answers" binding:"dive"`
	StartedAt  *time.Time    `json:"started_at"`
	Violations int           `json:"violations" binding:"min=0"`
}

type AnswerResponse struct {
	QuestionID         string `json:"question_id"`
	SelectedOptions    []int  `json:"selected_options"`
	SelectedOptionText string `json:"selected_option_text,omitempty"`
	Correct            bool   `json:"correct"`
}

type AttemptResponse struct {
	ID              uint       `json:"id"`
	TestID          uint       `json:"test_id"`
	CandidateID     uint       `json:"candidate_id"`
	Score           int        `json:"score"`
	CorrectCount    int        `json:"correct_count"`
	TotalQuestions  int        `json:"total_questions"`
	Passed          bool       `json:"passed"`
	Status          string     `json:"status"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	DurationSeconds int        `json:"duration_seconds"`
	Violations      int        `json:"violations"`
}

type AttemptSummaryResponse struct {
	AttemptResponse
	TestTitle    string `json:"test_title"`
	TestCategory string `json:"test_category,omitempty"`
	TestDeleted  bool   `json:"test_deleted"`
	PassingScore int    `json:"passing_score"`
}

type AttemptDetailResponse struct {
	AttemptSummaryResponse
	Answers   []AnswerResponse   `json:"answers"`
	Questions []QuestionResponse `json:"questions"`
}

type HRAttemptResponse struct {
	AttemptResponse
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	TestTitle      string `json:"test_title"`
}
