package model

import "time"

// Question ids are UUIDs assigned on creation so answers can reference them
// independently of their position.
type Question struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	TestID    uint      `json:"test_id" gorm:"not null;index"`
	Position  int       `json:"position" gorm:"not null"`
	Text      string    `json:"text" gorm:"type:text;not null"`
	Options   []Option  `json:"options" gorm:"foreignKey:QuestionID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Option struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	QuestionID string `json:"question_id" gorm:"type:varchar(36);not null;index"`
	Position   int    `json:"position" gorm:"not null"`
	Text       string `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool   `json:"is_correct"`
}

// CorrectPositions returns the positions of every option flagged correct.
func (q *Question) CorrectPositions() []int {
	var out []int
	for _, o := range q.Options {
		if o.IsCorrect {
			out = append(out, o.Position)
		}
	}
	return out
}
