package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/auth"
	"github.com/lshigami/Assessa/internal/cache"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/lshigami/Assessa/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var errDuplicateAttempt = errors.New("duplicate attempt")

type AttemptService interface {
	Submit(ctx context.Context, candidate auth.Claims, testID uint, req dto.SubmitAttemptRequest) (*dto.AttemptResponse, error)
	GetMine(ctx context.Context, candidateID uint) ([]dto.AttemptSummaryResponse, error)
	GetDetail(ctx context.Context, candidateID, attemptID uint) (*dto.AttemptDetailResponse, error)
	ListForHR(ctx context.Context, hrID uint) ([]dto.HRAttemptResponse, error)
}

type attemptService struct {
	attemptRepo    repository.AttemptRepository
	assignmentRepo repository.AssignmentRepository
	testRepo       repository.TestRepository
	caches         *cache.Caches
	db             *gorm.DB
	now            func() time.Time
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	assignmentRepo repository.AssignmentRepository,
	testRepo repository.TestRepository,
	caches *cache.Caches,
	db *gorm.DB,
) AttemptService {
	return &attemptService{
		attemptRepo:    attemptRepo,
		assignmentRepo: assignmentRepo,
		testRepo:       testRepo,
		caches:         caches,
		db:             db,
		now:            time.Now,
	}
}

// Submit grades the answers server-side and stores the attempt together with
// the assignment completion. A second submission for the same candidate and
// test fails on the unique index and is reported as Conflict.
func (s *attemptService) Submit(ctx context.Context, candidate auth.Claims, testID uint, req dto.SubmitAttemptRequest) (*dto.AttemptResponse, error) {
	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, notFoundOr(err, "test not found", "failed to load test")
	}
	if req.Violations < 0 {
		return nil, apperror.Validation("violations cannot be negative")
	}

	now := s.now()
	email := normalizeEmail(candidate.Email)
	startedAt := req.StartedAt

	assignment, err := s.assignmentRepo.FindForCandidate(ctx, testID, candidate.UserID, email)
	switch {
	case err == nil:
		if assignment.Status != model.AssignmentCompleted && assignment.IsExpired(now) {
			return nil, apperror.Forbidden("this test assignment has expired")
		}
		if startedAt == nil {
			startedAt = assignment.StartedAt
		}
	case repository.IsNotFound(err):
		if !test.Published && test.AccessType != model.AccessPublic {
			return nil, apperror.Forbidden("you are not assigned to this test")
		}
	default:
		return nil, apperror.Internal(err, "failed to load assignment")
	}

	graded, err := GradeAnswers(test.Questions, req.Answers)
	if err != nil {
		return nil, err
	}

	attempt := model.Attempt{
		CandidateID:    candidate.UserID,
		TestID:         testID,
		Answers:        graded.Answers,
		Score:          graded.Score,
		CorrectCount:   graded.Correct,
		TotalQuestions: graded.Total,
		Status:         model.AttemptCompleted,
		StartedAt:      startedAt,
		SubmittedAt:    now,
		Violations:     req.Violations,
	}
	if startedAt != nil && now.After(*startedAt) {
		attempt.DurationSeconds = int(now.Sub(*startedAt).Seconds())
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.attemptRepo.WithTx(tx).Create(ctx, &attempt); err != nil {
			if repository.IsDuplicateKey(err) {
				return errDuplicateAttempt
			}
			return err
		}
		_, err := s.assignmentRepo.WithTx(tx).MarkCompleted(ctx, testID, candidate.UserID, email, now)
		return err
	})
	if errors.Is(err, errDuplicateAttempt) {
		log.Warn().Uint("testID", testID).Uint("candidateID", candidate.UserID).Msg("Duplicate attempt rejected")
		conflict := apperror.Conflict("you have already taken this test")
		if existing, findErr := s.attemptRepo.FindByCandidateAndTest(ctx, candidate.UserID, testID); findErr == nil {
			return nil, conflict.WithDetails(fmt.Sprintf("existing attempt id: %d", existing.ID))
		}
		return nil, conflict
	}
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Uint("candidateID", candidate.UserID).Msg("Failed to store attempt")
		return nil, apperror.Internal(err, "failed to submit attempt")
	}

	log.Info().
		Uint("attemptID", attempt.ID).
		Uint("testID", testID).
		Uint("candidateID", candidate.UserID).
		Int("score", attempt.Score).
		Int("violations", attempt.Violations).
		Msg("Attempt submitted")
	s.invalidateAfterSubmit(candidate.UserID, test)

	resp := toAttemptResponse(&attempt, test.PassingScore)
	return &resp, nil
}

func (s *attemptService) invalidateAfterSubmit(candidateID uint, test *model.Test) {
	s.caches.Attempts.Delete(cache.MyAttemptsKey(candidateID))
	s.caches.Tests.Delete(
		cache.AvailableTestsKey(candidateID),
		cache.DashboardTestsKey(candidateID),
		cache.TestResultsKey(test.ID),
		cache.TestReportsKey(test.CreatedBy),
		cache.MonitorSessionsKey(test.CreatedBy),
	)
}

func (s *attemptService) GetMine(ctx context.Context, candidateID uint) ([]dto.AttemptSummaryResponse, error) {
	key := cache.MyAttemptsKey(candidateID)
	if cached, ok := cache.GetAs[[]dto.AttemptSummaryResponse](s.caches.Attempts, key); ok {
		return cached, nil
	}
	attempts, err := s.attemptRepo.ListByCandidate(ctx, candidateID)
	if err != nil {
		log.Error().Err(err).Uint("candidateID", candidateID).Msg("Failed to list attempts")
		return nil, apperror.Internal(err, "failed to list attempts")
	}
	out := make([]dto.AttemptSummaryResponse, 0, len(attempts))
	for i := range attempts {
		out = append(out, toAttemptSummary(&attempts[i]))
	}
	s.caches.Attempts.Set(key, out)
	return out, nil
}

func (s *attemptService) GetDetail(ctx context.Context, candidateID, attemptID uint) (*dto.AttemptDetailResponse, error) {
	attempt, err := s.attemptRepo.FindByID(ctx, attemptID)
	if err != nil {
		return nil, notFoundOr(err, "attempt not found", "failed to load attempt")
	}
	if attempt.CandidateID != candidateID {
		return nil, apperror.Forbidden("you can only view your own attempts")
	}
	test, err := s.testRepo.FindByIDUnscoped(ctx, attempt.TestID)
	if err != nil {
		return nil, notFoundOr(err, "test not found", "failed to load test")
	}
	attempt.Test = *test

	answers := make([]dto.AnswerResponse, 0, len(attempt.Answers))
	for _, a := range attempt.Answers {
		answers = append(answers, dto.AnswerResponse{
			QuestionID:         a.QuestionID,
			SelectedOptions:    a.SelectedOptions,
			SelectedOptionText: a.SelectedOptionText,
			Correct:            a.Correct,
		})
	}
	return &dto.AttemptDetailResponse{
		AttemptSummaryResponse: toAttemptSummary(attempt),
		Answers:                answers,
		Questions:              toQuestionResponses(test.Questions, false),
	}, nil
}

func (s *attemptService) ListForHR(ctx context.Context, hrID uint) ([]dto.HRAttemptResponse, error) {
	testIDs, err := s.testRepo.IDsByCreator(ctx, hrID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list tests")
	}
	attempts, err := s.attemptRepo.ListByTests(ctx, testIDs)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list attempts")
	}
	out := make([]dto.HRAttemptResponse, 0, len(attempts))
	for i := range attempts {
		a := &attempts[i]
		out = append(out, dto.HRAttemptResponse{
			AttemptResponse: toAttemptResponse(a, a.Test.PassingScore),
			CandidateName:   a.Candidate.Name,
			CandidateEmail:  a.Candidate.Email,
			TestTitle:       a.Test.Title,
		})
	}
	return out, nil
}
