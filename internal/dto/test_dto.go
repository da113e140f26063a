package dto

import "time"

type OptionInput struct {
	Text      string `json:"text" binding:"required,notblank"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionInput struct {
	Text    string        `json:"text" binding:"required,notblank"`
	Options []OptionInput `json:"options" binding:"required,min=1,dive"`
}

// TestCreateRequest is the HR payload for a new test. Zero values fall back to
// the platform defaults.
type TestCreateRequest struct {
	Title            string          `json:"title" binding:"required,notblank"`
	Description      string          `json:"description"`
	Category         string          `json:"category"`
	Duration         int             `json:"duration" binding:"omitempty,min=1,max=600"`
	PassingScore     *int            `json:"passing_score" binding:"omitempty,min=0,max=100"`
	AccessType       string          `json:"access_type" binding:"omitempty,oneof=invited public"`
	EnableProctoring bool            `json:"enable_proctoring"`
	Questions        []QuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// TestUpdateRequest patches only the fields that are present.
type TestUpdateRequest struct {
	Title            *string         `json:"title" binding:"omitempty,notblank"`
	Description      *string         `json:"description"`
	Category         *string         `json:"category"`
	Duration         *int            `json:"duration" binding:"omitempty,min=1,max=600"`
	PassingScore     *int            `json:"passing_score" binding:"omitempty,min=0,max=100"`
	AccessType       *string         `json:"access_type" binding:"omitempty,oneof=invited public"`
	EnableProctoring *bool           `json:"enable_proctoring"`
	Questions        []QuestionInput `json:"questions" binding:"omitempty,min=1,dive"`
}

type OptionResponse struct {
	ID        string `json:"id"`
	Position  int    `json:"position"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type QuestionResponse struct {
	ID       string           `json:"id"`
	Position int              `json:"position"`
	Text     string           `json:"text"`
	Options  []OptionResponse `json:"options"`
}

// TestResponse is the full test. Correctness flags are only set for the owner.
type TestResponse struct {
	ID               uint               `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description,omitempty"`
	Category         string             `json:"category,omitempty"`
	Duration         int                `json:"duration"`
	PassingScore     int                `json:"passing_score"`
	AccessType       string             `json:"access_type"`
	EnableProctoring bool               `json:"enable_proctoring"`
	Published        bool               `json:"published"`
	CreatedBy        uint               `json:"created_by"`
	Questions        []QuestionResponse `json:"questions"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

type TestSummaryResponse struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category,omitempty"`
	Duration         int       `json:"duration"`
	PassingScore     int       `json:"passing_score"`
	AccessType       string    `json:"access_type"`
	EnableProctoring bool      `json:"enable_proctoring"`
	Published        bool      `json:"published"`
	QuestionCount    int       `json:"question_count"`
	Attempted        bool      `json:"attempted"`
	CreatedAt        time.Time `json:"created_at"`
}

// --- Question generation ---

type GenerateQuestionsRequest struct {
	Text         string `json:"text" binding:"required,notblank"`
	NumQuestions int    `json:"num_questions" binding:"omitempty,min=1,max=50"`
	Difficulty   string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

type GenerateQuestionsResponse struct {
	Questions      []QuestionInput `json:"questions"`
	Count          int             `json:"count"`
	GenerationTime float64         `json:"generation_time,omitempty"`
	Cached         bool            `json:"cached"`
	Provider       string          `json:"provider"`
}
