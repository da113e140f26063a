package service

import (
	"math"
	"sort"
	"strings"

	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
)

// GradeResult is the outcome of scoring one submission.
type GradeResult struct {
	Answers []model.AnswerRecord
	Correct int
	Total   int
	Score   int
}

// GradeAnswers scores answers against the questions in test order. A question
// is correct only when the selected positions equal its non-empty set of
// correct positions. Unanswered questions count as incorrect.
func GradeAnswers(questions []model.Question, answers []dto.AnswerInput) (*GradeResult, error) {
	byQuestion := make(map[string]dto.AnswerInput, len(answers))
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	for _, a := range answers {
		if !known[a.QuestionID] {
			return nil, apperror.Validation("answer references unknown question %q", a.QuestionID)
		}
		if _, dup := byQuestion[a.QuestionID]; dup {
			return nil, apperror.Validation("question %q answered more than once", a.QuestionID)
		}
		byQuestion[a.QuestionID] = a
	}

	result := &GradeResult{Total: len(questions)}
	for _, q := range questions {
		record := model.AnswerRecord{QuestionID: q.ID, SelectedOptions: []int{}}
		if a, ok := byQuestion[q.ID]; ok {
			record.SelectedOptions = resolveSelection(q, a)
			record.SelectedOptionText = selectionText(q, record.SelectedOptions)
		}
		record.Correct = sameSet(q.CorrectPositions(), record.SelectedOptions)
		if record.Correct {
			result.Correct++
		}
		result.Answers = append(result.Answers, record)
	}
	result.Score = Percent(result.Correct, result.Total)
	return result, nil
}

// resolveSelection prefers explicit positions and falls back to matching the
// option text. The result is sorted and de-duplicated.
func resolveSelection(q model.Question, a dto.AnswerInput) []int {
	var picked []int
	if len(a.SelectedOptions) > 0 {
		picked = append(picked, a.SelectedOptions...)
	} else if text := strings.TrimSpace(a.SelectedOption); text != "" {
		for _, o := range q.Options {
			if strings.EqualFold(strings.TrimSpace(o.Text), text) {
				picked = append(picked, o.Position)
				break
			}
		}
	}
	sort.Ints(picked)
	out := make([]int, 0, len(picked))
	for i, p := range picked {
		if i == 0 || p != picked[i-1] {
			out = append(out, p)
		}
	}
	return out
}

func selectionText(q model.Question, positions []int) string {
	var texts []string
	for _, p := range positions {
		for _, o := range q.Options {
			if o.Position == p {
				texts = append(texts, o.Text)
			}
		}
	}
	return strings.Join(texts, ", ")
}

func sameSet(correct, selected []int) bool {
	if len(correct) == 0 || len(correct) != len(selected) {
		return false
	}
	want := make(map[int]bool, len(correct))
	for _, c := range correct {
		want[c] = true
	}
	for _, s := range selected {
		if !want[s] {
			return false
		}
	}
	return true
}

// Percent returns round(100*part/whole), or 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}

// roundTo1 rounds to one decimal place.
func roundTo1(v float64) float64 {
	return math.Round(v*10) / 10
}
