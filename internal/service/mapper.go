package service

import (
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/lshigami/Assessa/internal/repository"
	"github.com/rs/zerolog/log"
)

// toTestResponse maps a test with its questions. withAnswers controls whether
// option correctness flags are exposed.
func toTestResponse(test *model.Test, withAnswers bool) dto.TestResponse {
	var resp dto.TestResponse
	if err := copier.Copy(&resp, test); err != nil {
		log.Error().Err(err).Uint("testID", test.ID).Msg("Failed to copy Test model to TestResponse")
	}
	resp.AccessType = string(test.AccessType)
	resp.Questions = toQuestionResponses(test.Questions, withAnswers)
	return resp
}

func toQuestionResponses(questions []model.Question, withAnswers bool) []dto.QuestionResponse {
	out := make([]dto.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		qr := dto.QuestionResponse{ID: q.ID, Position: q.Position, Text: q.Text, Options: make([]dto.OptionResponse, 0, len(q.Options))}
		for _, o := range q.Options {
			or := dto.OptionResponse{ID: o.ID, Position: o.Position, Text: o.Text}
			if withAnswers {
				correct := o.IsCorrect
				or.IsCorrect = &correct
			}
			qr.Options = append(qr.Options, or)
		}
		out = append(out, qr)
	}
	return out
}

func toTestSummary(t repository.TestWithCount, attempted bool) dto.TestSummaryResponse {
	return dto.TestSummaryResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Category:         t.Category,
		Duration:         t.Duration,
		PassingScore:     t.PassingScore,
		AccessType:       string(t.AccessType),
		EnableProctoring: t.EnableProctoring,
		Published:        t.Published,
		QuestionCount:    t.QuestionCount,
		Attempted:        attempted,
		CreatedAt:        t.CreatedAt,
	}
}

func toUserResponse(u *model.User) dto.UserResponse {
	var resp dto.UserResponse
	if err := copier.Copy(&resp, u); err != nil {
		log.Error().Err(err).Uint("userID", u.ID).Msg("Failed to copy User model to UserResponse")
	}
	resp.Role = string(u.Role)
	return resp
}

func toAssignmentResponse(a *model.Assignment, now time.Time) dto.AssignmentResponse {
	var resp dto.AssignmentResponse
	if err := copier.Copy(&resp, a); err != nil {
		log.Error().Err(err).Uint("assignmentID", a.ID).Msg("Failed to copy Assignment model to AssignmentResponse")
	}
	resp.Origin = string(a.Origin)
	resp.Status = string(a.Status)
	resp.Expired = a.IsExpired(now) && a.Status != model.AssignmentCompleted
	if a.Candidate != nil {
		resp.CandidateName = a.Candidate.Name
	}
	return resp
}

func toAttemptResponse(a *model.Attempt, passingScore int) dto.AttemptResponse {
	var resp dto.AttemptResponse
	if err := copier.Copy(&resp, a); err != nil {
		log.Error().Err(err).Uint("attemptID", a.ID).Msg("Failed to copy Attempt model to AttemptResponse")
	}
	resp.Status = string(a.Status)
	resp.Passed = a.Score >= passingScore
	return resp
}

func toAttemptSummary(a *model.Attempt) dto.AttemptSummaryResponse {
	return dto.AttemptSummaryResponse{
		AttemptResponse: toAttemptResponse(a, a.Test.PassingScore),
		TestTitle:       a.Test.Title,
		TestCategory:    a.Test.Category,
		TestDeleted:     a.Test.DeletedAt.Valid,
		PassingScore:    a.Test.PassingScore,
	}
}
