package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/auth"
	"github.com/lshigami/Assessa/internal/cache"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/lshigami/Assessa/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TestService interface {
	CreateTest(ctx context.Context, ownerID uint, req dto.TestCreateRequest) (*dto.TestResponse, error)
	UpdateTest(ctx context.Context, ownerID, testID uint, req dto.TestUpdateRequest) (*dto.TestResponse, error)
	TogglePublish(ctx context.Context, ownerID, testID uint) (*dto.TestResponse, error)
	DeleteTest(ctx context.Context, ownerID, testID uint) error
	ListOwnedTests(ctx context.Context, ownerID uint) ([]dto.TestSummaryResponse, error)
	GetPublishedTests(ctx context.Context) ([]dto.TestSummaryResponse, error)
	GetDashboardTests(ctx context.Context, candidateID uint) ([]dto.TestSummaryResponse, error)
	GetAvailableTests(ctx context.Context, candidateID uint) ([]dto.TestSummaryResponse, error)
	GetTestByID(ctx context.Context, viewer auth.Claims, testID uint) (*dto.TestResponse, error)
}

type testService struct {
	testRepo       repository.TestRepository
	questionRepo   repository.QuestionRepository
	attemptRepo    repository.AttemptRepository
	assignmentRepo repository.AssignmentRepository
	caches         *cache.Caches
	db             *gorm.DB
}

func NewTestService(
	testRepo repository.TestRepository,
	questionRepo repository.QuestionRepository,
	attemptRepo repository.AttemptRepository,
	assignmentRepo repository.AssignmentRepository,
	caches *cache.Caches,
	db *gorm.DB,
) TestService {
	return &testService{
		testRepo:       testRepo,
		questionRepo:   questionRepo,
		attemptRepo:    attemptRepo,
		assignmentRepo: assignmentRepo,
		caches:         caches,
		db:             db,
	}
}

func (s *testService) CreateTest(ctx context.Context, ownerID uint, req dto.TestCreateRequest) (*dto.TestResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperror.Validation("title is required")
	}
	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	test := model.Test{
		Title:            title,
		Description:      strings.TrimSpace(req.Description),
		Category:         strings.TrimSpace(req.Category),
		Duration:         model.DefaultDuration,
		PassingScore:     model.DefaultPassingScore,
		AccessType:       model.AccessInvited,
		EnableProctoring: req.EnableProctoring,
		Published:        false,
		CreatedBy:        ownerID,
		Questions:        questions,
	}
	if req.Duration > 0 {
		test.Duration = req.Duration
	}
	if req.PassingScore != nil {
		test.PassingScore = *req.PassingScore
	}
	if req.AccessType != "" {
		accessType, err := parseAccessType(req.AccessType)
		if err != nil {
			return nil, err
		}
		test.AccessType = accessType
	}

	if err := s.testRepo.Create(ctx, &test); err != nil {
		log.Error().Err(err).Uint("ownerID", ownerID).Msg("Failed to create test in database")
		return nil, apperror.Internal(err, "failed to create test")
	}
	log.Info().Uint("testID", test.ID).Uint("ownerID", ownerID).Int("questions", len(questions)).Msg("Test created")
	s.invalidateTestListings(ownerID, test.ID)

	created, err := s.testRepo.FindByIDWithQuestions(ctx, test.ID)
	if err != nil {
		log.Error().Err(err).Uint("testID", test.ID).Msg("Failed to reload created test")
		resp := toTestResponse(&test, true)
		return &resp, nil
	}
	resp := toTestResponse(created, true)
	return &resp, nil
}

func (s *testService) UpdateTest(ctx context.Context, ownerID, testID uint, req dto.TestUpdateRequest) (*dto.TestResponse, error) {
	test, err := s.testRepo.FindByID(ctx, testID)
	if err != nil {
		return nil, notFoundOr(err, "test not found", "failed to load test")
	}
	if !test.IsOwnedBy(ownerID) {
		return nil, apperror.Forbidden("you can only edit your own tests")
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperror.Validation("title cannot be empty")
		}
		fields["title"] = title
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		fields["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Duration != nil {
		if *req.Duration <= 0 {
			return nil, apperror.Validation("duration must be positive")
		}
		fields["duration"] = *req.Duration
	}
	if req.PassingScore != nil {
		if *req.PassingScore < 0 || *req.PassingScore > 100 {
			return nil, apperror.Validation("passing score must be between 0 and 100")
		}
		fields["passing_score"] = *req.PassingScore
	}
	if req.AccessType != nil {
		accessType, err := parseAccessType(*req.AccessType)
		if err != nil {
			return nil, err
		}
		fields["access_type"] = accessType
	}
	if req.EnableProctoring != nil {
		fields["enable_proctoring"] = *req.EnableProctoring
	}

	var questions []model.Question
	if req.Questions != nil {
		questions, err = buildQuestions(req.Questions)
		if err != nil {
			return nil, err
		}
		attempted, err := s.attemptRepo.ExistsForTest(ctx, testID)
		if err != nil {
			return nil, apperror.Internal(err, "failed to check attempts")
		}
		if attempted {
			return nil, apperror.Conflict("questions cannot be changed after candidates have submitted attempts")
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.testRepo.WithTx(tx).UpdateFields(ctx, testID, fields); err != nil {
			return err
		}
		if questions != nil {
			return s.questionRepo.WithTx(tx).ReplaceForTest(ctx, testID, questions)
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Uint("testID", testID).Msg("Failed to update test")
		return nil, apperror.Internal(err, "failed to update test")
	}

	s.invalidateTestListings(ownerID, testID)
	updated, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to reload test")
	}
	resp := toTestResponse(updated, true)
	return &resp, nil
}

func (s *testService) TogglePublish(ctx context.Context, ownerID, testID uint) (*dto.TestResponse, error) {
	test, err := s.loadOwned(ctx, ownerID, testID)
	if err != nil {
		return nil, err
	}
	if err := s.testRepo.UpdateFields(ctx, testID, map[string]interface{}{"published": !test.Published}); err != nil {
		return nil, apperror.Internal(err, "failed to toggle publish")
	}
	log.Info().Uint("testID", testID).Bool("published", !test.Published).Msg("Test publish toggled")
	s.invalidateTestListings(ownerID, testID)

	updated, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to reload test")
	}
	resp := toTestResponse(updated, true)
	return &resp, nil
}

func (s *testService) DeleteTest(ctx context.Context, ownerID, testID uint) error {
	test, err := s.testRepo.FindByID(ctx, testID)
	if err != nil {
		return notFoundOr(err, "test not found", "failed to load test")
	}
	if !test.IsOwnedBy(ownerID) {
		return apperror.Forbidden("you can only delete your own tests")
	}
	if err := s.testRepo.Delete(ctx, testID); err != nil {
		return apperror.Internal(err, "failed to delete test")
	}
	log.Info().Uint("testID", testID).Msg("Test soft-deleted")
	s.invalidateTestListings(ownerID, testID)
	return nil
}

func (s *testService) ListOwnedTests(ctx context.Context, ownerID uint) ([]dto.TestSummaryResponse, error) {
	tests, err := s.testRepo.ListByCreator(ctx, ownerID)
	if err != nil {
		log.Error().Err(err).Uint("ownerID", ownerID).Msg("Failed to list owned tests")
		return nil, apperror.Internal(err, "failed to list tests")
	}
	out := make([]dto.TestSummaryResponse, 0, len(tests))
	for _, t := range tests {
		out = append(out, toTestSummary(t, false))
	}
	return out, nil
}

func (s *testService) GetPublishedTests(ctx context.Context) ([]dto.TestSummaryResponse, error) {
	tests, err := s.testRepo.ListPublished(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list published tests")
	}
	out := make([]dto.TestSummaryResponse, 0, len(tests))
	for _, t := range tests {
		out = append(out, toTestSummary(t, false))
	}
	return out, nil
}

// GetDashboardTests lists published tests plus anything the candidate already
// attempted, flagging the attempted ones.
func (s *testService) GetDashboardTests(ctx context.Context, candidateID uint) ([]dto.TestSummaryResponse, error) {
	key := cache.DashboardTestsKey(candidateID)
	if cached, ok := cache.GetAs[[]dto.TestSummaryResponse](s.caches.Tests, key); ok {
		return cached, nil
	}

	attempted, err := s.attemptRepo.TestIDsByCandidate(ctx, candidateID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load attempts")
	}
	tests, err := s.testRepo.ListPublishedOr(ctx, attempted)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list tests")
	}
	done := idSet(attempted)
	out := make([]dto.TestSummaryResponse, 0, len(tests))
	for _, t := range tests {
		out = append(out, toTestSummary(t, done[t.ID]))
	}
	s.caches.Tests.Set(key, out)
	return out, nil
}

func (s *testService) GetAvailableTests(ctx context.Context, candidateID uint) ([]dto.TestSummaryResponse, error) {
	key := cache.AvailableTestsKey(candidateID)
	if cached, ok := cache.GetAs[[]dto.TestSummaryResponse](s.caches.Tests, key); ok {
		return cached, nil
	}

	attempted, err := s.attemptRepo.TestIDsByCandidate(ctx, candidateID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to load attempts")
	}
	tests, err := s.testRepo.ListPublished(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list tests")
	}
	done := idSet(attempted)
	out := make([]dto.TestSummaryResponse, 0, len(tests))
	for _, t := range tests {
		if done[t.ID] {
			continue
		}
		out = append(out, toTestSummary(t, false))
	}
	s.caches.Tests.Set(key, out)
	log.Debug().Uint("candidateID", candidateID).Int("count", len(out)).Msg("Available tests computed")
	return out, nil
}

// GetTestByID returns the test with correctness flags only for its owner.
// Candidates see published or public tests and tests they were assigned.
func (s *testService) GetTestByID(ctx context.Context, viewer auth.Claims, testID uint) (*dto.TestResponse, error) {
	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, notFoundOr(err, "test not found", "failed to load test")
	}
	if viewer.IsHR() && test.IsOwnedBy(viewer.UserID) {
		resp := toTestResponse(test, true)
		return &resp, nil
	}
	if viewer.IsCandidate() && !test.Published && test.AccessType != model.AccessPublic {
		assigned, err := s.assignmentRepo.TestIDsForCandidate(ctx, viewer.UserID, normalizeEmail(viewer.Email))
		if err != nil {
			return nil, apperror.Internal(err, "failed to load assignments")
		}
		if !idSet(assigned)[testID] {
			return nil, apperror.NotFound("test not found")
		}
	}
	resp := toTestResponse(test, false)
	return &resp, nil
}

// loadOwned returns NotFound both for missing tests and tests of another HR user.
func (s *testService) loadOwned(ctx context.Context, ownerID, testID uint) (*model.Test, error) {
	return loadOwnedTest(ctx, s.testRepo, ownerID, testID)
}

func (s *testService) invalidateTestListings(ownerID, testID uint) {
	s.caches.Tests.DeletePrefix(cache.AvailableTestsPrefix)
	s.caches.Tests.DeletePrefix(cache.DashboardTestsPrefix)
	s.caches.Tests.Delete(cache.TestReportsKey(ownerID), cache.TestResultsKey(testID), cache.MonitorSessionsKey(ownerID))
}

func loadOwnedTest(ctx context.Context, repo repository.TestRepository, ownerID, testID uint) (*model.Test, error) {
	test, err := repo.FindByID(ctx, testID)
	if err != nil {
		return nil, notFoundOr(err, "test not found", "failed to load test")
	}
	if !test.IsOwnedBy(ownerID) {
		return nil, apperror.NotFound("test not found")
	}
	return test, nil
}

// buildQuestions validates and trims the question inputs and assigns ids.
func buildQuestions(inputs []dto.QuestionInput) ([]model.Question, error) {
	if len(inputs) == 0 {
		return nil, apperror.Validation("a test needs at least one question")
	}
	questions := make([]model.Question, 0, len(inputs))
	for i, in := range inputs {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return nil, apperror.Validation("question %d has no text", i+1)
		}
		if len(in.Options) == 0 {
			return nil, apperror.Validation("question %d needs at least one option", i+1)
		}
		q := model.Question{ID: uuid.NewString(), Position: i, Text: text}
		hasCorrect := false
		for j, o := range in.Options {
			optText := strings.TrimSpace(o.Text)
			if optText == "" {
				return nil, apperror.Validation("question %d option %d has no text", i+1, j+1)
			}
			q.Options = append(q.Options, model.Option{
				ID:         uuid.NewString(),
				QuestionID: q.ID,
				Position:   j,
				Text:       optText,
				IsCorrect:  o.IsCorrect,
			})
			hasCorrect = hasCorrect || o.IsCorrect
		}
		if !hasCorrect {
			return nil, apperror.Validation("question %d needs at least one correct option", i+1)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func parseAccessType(raw string) (model.AccessType, error) {
	switch model.AccessType(strings.ToLower(strings.TrimSpace(raw))) {
	case model.AccessInvited:
		return model.AccessInvited, nil
	case model.AccessPublic:
		return model.AccessPublic, nil
	}
	return "", apperror.Validation("access type must be invited or public")
}

// notFoundOr maps gorm.ErrRecordNotFound to NotFound and anything else to Internal.
func notFoundOr(err error, notFoundMsg, internalMsg string) error {
	if repository.IsNotFound(err) {
		return apperror.NotFound("%s", notFoundMsg)
	}
	return apperror.Internal(err, "%s", internalMsg)
}

func idSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
