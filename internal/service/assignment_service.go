package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lshigami/Assessa/config"
	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/auth"
	"github.com/lshigami/Assessa/internal/cache"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/lshigami/Assessa/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	skipInvalidEmail    = "invalid email format"
	skipDuplicateInput  = "duplicate email in request"
	skipAlreadyAssigned = "test already assigned to this email"
	skipCreateFailed    = "could not create assignment"
	defaultCategory     = "General"
)

func errAlreadyCompleted() error {
	return apperror.Conflict("you have already completed this test")
}

type AssignmentService interface {
	InviteCandidates(ctx context.Context, hrID uint, req dto.InviteRequest) (*dto.InviteResponse, error)
	ResolveByToken(ctx context.Context, token string, viewer *auth.Claims) (*dto.TokenTestResponse, error)
	// StartOrResume reports created=true when a self-serve assignment was made.
	StartOrResume(ctx context.Context, candidate auth.Claims, testID uint) (*dto.StartTestResponse, bool, error)
	MarkCompleted(ctx context.Context, candidate auth.Claims, testID uint) error
	GroupByStatusForHR(ctx context.Context, hrID uint) (*dto.GroupedAssignmentsResponse, error)
	ListTestAssignments(ctx context.Context, hrID, testID uint) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	testRepo       repository.TestRepository
	attemptRepo    repository.AttemptRepository
	userRepo       repository.UserRepository
	mailer         Mailer
	caches         *cache.Caches
	validate       *validator.Validate
	ttl            time.Duration
	clientURL      string
	now            func() time.Time
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	testRepo repository.TestRepository,
	attemptRepo repository.AttemptRepository,
	userRepo repository.UserRepository,
	mailer Mailer,
	caches *cache.Caches,
	cfg *config.Config,
) AssignmentService {
	ttl := cfg.Auth.AssignmentTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		testRepo:       testRepo,
		attemptRepo:    attemptRepo,
		userRepo:       userRepo,
		mailer:         mailer,
		caches:         caches,
		validate:       validator.New(),
		ttl:            ttl,
		clientURL:      cfg.Server.ClientURL,
		now:            time.Now,
	}
}

// InviteCandidates creates one pending assignment per new email. Bad or
// already-assigned emails are reported in Skipped instead of failing the batch.
func (s *assignmentService) InviteCandidates(ctx context.Context, hrID uint, req dto.InviteRequest) (*dto.InviteResponse, error) {
	if len(req.Emails) == 0 {
		return nil, apperror.Validation("at least one candidate email is required")
	}
	test, err := loadOwnedTest(ctx, s.testRepo, hrID, req.TestID)
	if err != nil {
		return nil, err
	}

	resp := &dto.InviteResponse{Created: []dto.AssignmentResponse{}, Skipped: []dto.SkippedInvite{}}
	seen := make(map[string]bool)
	var emails []string
	for _, raw := range req.Emails {
		email := normalizeEmail(raw)
		if email == "" || s.validate.Var(email, "required,email") != nil {
			resp.Skipped = append(resp.Skipped, dto.SkippedInvite{Email: raw, Reason: skipInvalidEmail})
			continue
		}
		if seen[email] {
			resp.Skipped = append(resp.Skipped, dto.SkippedInvite{Email: email, Reason: skipDuplicateInput})
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}

	existing, err := s.assignmentRepo.ExistingEmails(ctx, test.ID, emails)
	if err != nil {
		return nil, apperror.Internal(err, "failed to check existing assignments")
	}
	assigned := make(map[string]bool, len(existing))
	for _, e := range existing {
		assigned[e] = true
	}

	users, err := s.userRepo.FindByEmails(ctx, emails)
	if err != nil {
		return nil, apperror.Internal(err, "failed to look up candidates")
	}
	candidates := make(map[string]*model.User, len(users))
	for i := range users {
		if users[i].Role == model.RoleCandidate {
			candidates[users[i].Email] = &users[i]
		}
	}

	now := s.now()
	for _, email := range emails {
		if assigned[email] {
			resp.Skipped = append(resp.Skipped, dto.SkippedInvite{Email: email, Reason: skipAlreadyAssigned})
			continue
		}
		token, err := newAccessToken()
		if err != nil {
			return nil, apperror.Internal(err, "failed to generate access token")
		}
		a := &model.Assignment{
			TestID:         test.ID,
			CandidateEmail: email,
			AssignedBy:     hrID,
			Origin:         model.OriginInvited,
			Status:         model.AssignmentPending,
			AccessToken:    token,
			ExpiresAt:      now.Add(s.ttl),
		}
		var candidate *model.User
		if u, ok := candidates[email]; ok {
			a.CandidateID = &u.ID
			candidate = u
		}
		if err := s.assignmentRepo.Create(ctx, a); err != nil {
			if repository.IsDuplicateKey(err) {
				resp.Skipped = append(resp.Skipped, dto.SkippedInvite{Email: email, Reason: skipAlreadyAssigned})
				continue
			}
			log.Error().Err(err).Uint("testID", test.ID).Str("email", email).Msg("Failed to create assignment")
			resp.Skipped = append(resp.Skipped, dto.SkippedInvite{Email: email, Reason: skipCreateFailed})
			continue
		}
		a.Candidate = candidate
		a.InvitationSent = s.sendInvitation(ctx, test, a)
		resp.Created = append(resp.Created, toAssignmentResponse(a, now))
	}

	resp.Message = fmt.Sprintf("%d candidate(s) assigned, %d skipped", len(resp.Created), len(resp.Skipped))
	log.Info().Uint("testID", test.ID).Int("created", len(resp.Created)).Int("skipped", len(resp.Skipped)).Msg("Candidates invited")
	s.invalidateForTest(test)
	return resp, nil
}

// sendInvitation is best-effort; a delivery failure leaves the assignment usable.
func (s *assignmentService) sendInvitation(ctx context.Context, test *model.Test, a *model.Assignment) bool {
	inv := Invitation{
		To:        a.CandidateEmail,
		TestTitle: test.Title,
		Duration:  test.Duration,
		Link:      fmt.Sprintf("%s/test/token/%s", s.clientURL, a.AccessToken),
		ExpiresAt: a.ExpiresAt,
	}
	if err := s.mailer.SendInvitation(ctx, inv); err != nil {
		log.Warn().Err(err).Uint("assignmentID", a.ID).Str("email", a.CandidateEmail).Msg("Invitation email not sent")
		return false
	}
	if err := s.assignmentRepo.MarkInvitationSent(ctx, a.ID); err != nil {
		log.Warn().Err(err).Uint("assignmentID", a.ID).Msg("Failed to record invitation delivery")
	}
	return true
}

func (s *assignmentService) ResolveByToken(ctx context.Context, token string, viewer *auth.Claims) (*dto.TokenTestResponse, error) {
	const invalidLink = "invalid or expired test link"
	if token == "" {
		return nil, apperror.NotFound(invalidLink)
	}
	a, err := s.assignmentRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, notFoundOr(err, invalidLink, "failed to load assignment")
	}
	now := s.now()
	if a.IsExpired(now) {
		return nil, apperror.NotFound(invalidLink)
	}
	test, err := s.testRepo.FindByIDWithQuestions(ctx, a.TestID)
	if err != nil {
		return nil, notFoundOr(err, invalidLink, "failed to load test")
	}

	if viewer != nil && viewer.IsCandidate() {
		if normalizeEmail(viewer.Email) != a.CandidateEmail {
			return nil, apperror.Forbidden("this test link was issued to a different email address")
		}
		if a.CandidateID == nil {
			if err := s.assignmentRepo.LinkCandidate(ctx, a.ID, viewer.UserID); err != nil {
				return nil, apperror.Internal(err, "failed to link candidate")
			}
			id := viewer.UserID
			a.CandidateID = &id
		}
	}
	if a.Status == model.AssignmentCompleted {
		return nil, apperror.Conflict("you have already taken this test")
	}
	if a.CandidateID != nil {
		if _, err := s.attemptRepo.FindByCandidateAndTest(ctx, *a.CandidateID, a.TestID); err == nil {
			return nil, apperror.Conflict("you have already taken this test")
		} else if !repository.IsNotFound(err) {
			return nil, apperror.Internal(err, "failed to check attempts")
		}
	}

	return &dto.TokenTestResponse{
		Test:       toTestResponse(test, false),
		Assignment: toAssignmentResponse(a, now),
	}, nil
}

func (s *assignmentService) StartOrResume(ctx context.Context, candidate auth.Claims, testID uint) (*dto.StartTestResponse, bool, error) {
	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, false, notFoundOr(err, "test not found", "failed to load test")
	}
	if _, err := s.attemptRepo.FindByCandidateAndTest(ctx, candidate.UserID, testID); err == nil {
		return nil, false, errAlreadyCompleted()
	} else if !repository.IsNotFound(err) {
		return nil, false, apperror.Internal(err, "failed to check attempts")
	}

	email := normalizeEmail(candidate.Email)
	now := s.now()
	created := false
	resumed := false

	a, err := s.assignmentRepo.FindForCandidate(ctx, testID, candidate.UserID, email)
	switch {
	case repository.IsNotFound(err):
		a, created, err = s.createSelfServe(ctx, test, candidate, email, now)
		if err != nil {
			return nil, false, err
		}
	case err != nil:
		return nil, false, apperror.Internal(err, "failed to load assignment")
	}

	if !created {
		if resumed, err = s.activate(ctx, a, candidate, now); err != nil {
			return nil, false, err
		}
	}

	log.Info().Uint("testID", testID).Uint("candidateID", candidate.UserID).Bool("created", created).Bool("resumed", resumed).Msg("Test started")
	s.invalidateForTest(test)
	return &dto.StartTestResponse{
		Assignment: toAssignmentResponse(a, now),
		Test:       toTestResponse(test, false),
		Resumed:    resumed,
	}, created, nil
}

// createSelfServe makes an active public-origin assignment. A lost race on the
// (test, email) unique index falls back to activating the winner's row.
func (s *assignmentService) createSelfServe(ctx context.Context, test *model.Test, candidate auth.Claims, email string, now time.Time) (*model.Assignment, bool, error) {
	if !test.Published && test.AccessType != model.AccessPublic {
		return nil, false, apperror.Forbidden("this test is not open to candidates")
	}
	token, err := newAccessToken()
	if err != nil {
		return nil, false, apperror.Internal(err, "failed to generate access token")
	}
	candidateID := candidate.UserID
	started := now
	a := &model.Assignment{
		TestID:         test.ID,
		CandidateEmail: email,
		CandidateID:    &candidateID,
		AssignedBy:     test.CreatedBy,
		Origin:         model.OriginPublic,
		Status:         model.AssignmentActive,
		AccessToken:    token,
		ExpiresAt:      now.Add(s.ttl),
		StartedAt:      &started,
	}
	err = s.assignmentRepo.Create(ctx, a)
	if err == nil {
		return a, true, nil
	}
	if !repository.IsDuplicateKey(err) {
		return nil, false, apperror.Internal(err, "failed to create assignment")
	}
	existing, err := s.assignmentRepo.FindForCandidate(ctx, test.ID, candidate.UserID, email)
	if err != nil {
		return nil, false, apperror.Internal(err, "failed to reload assignment")
	}
	if _, err := s.activate(ctx, existing, candidate, now); err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// activate applies the pending -> active transition. It reports whether the
// assignment was already active.
func (s *assignmentService) activate(ctx context.Context, a *model.Assignment, candidate auth.Claims, now time.Time) (bool, error) {
	if a.CandidateID == nil {
		if err := s.assignmentRepo.LinkCandidate(ctx, a.ID, candidate.UserID); err != nil {
			return false, apperror.Internal(err, "failed to link candidate")
		}
		id := candidate.UserID
		a.CandidateID = &id
	}
	if a.Status == model.AssignmentCompleted {
		return false, errAlreadyCompleted()
	}
	if a.IsExpired(now) {
		return false, apperror.Forbidden("this test assignment has expired")
	}
	if a.Status == model.AssignmentActive {
		return true, nil
	}

	changed, err := s.assignmentRepo.Transition(ctx, a.ID, []model.AssignmentStatus{model.AssignmentPending}, model.AssignmentActive, now)
	if err != nil {
		return false, apperror.Internal(err, "failed to start assignment")
	}
	if !changed {
		// Someone else moved it first; evaluate the stored state.
		fresh, err := s.assignmentRepo.FindByID(ctx, a.ID)
		if err != nil {
			return false, apperror.Internal(err, "failed to reload assignment")
		}
		*a = *fresh
		if a.Status == model.AssignmentCompleted {
			return false, errAlreadyCompleted()
		}
		return true, nil
	}
	a.Status = model.AssignmentActive
	a.StartedAt = &now
	return false, nil
}

func (s *assignmentService) MarkCompleted(ctx context.Context, candidate auth.Claims, testID uint) error {
	n, err := s.assignmentRepo.MarkCompleted(ctx, testID, candidate.UserID, normalizeEmail(candidate.Email), s.now())
	if err != nil {
		return apperror.Internal(err, "failed to complete assignment")
	}
	log.Debug().Uint("testID", testID).Uint("candidateID", candidate.UserID).Int64("rows", n).Msg("Assignment completion applied")
	return nil
}

func (s *assignmentService) GroupByStatusForHR(ctx context.Context, hrID uint) (*dto.GroupedAssignmentsResponse, error) {
	testIDs, err := s.testRepo.IDsByCreator(ctx, hrID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list tests")
	}
	assignments, err := s.assignmentRepo.ListByTests(ctx, testIDs)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list assignments")
	}
	return groupAssignments(assignments), nil
}

func groupAssignments(assignments []model.Assignment) *dto.GroupedAssignmentsResponse {
	out := &dto.GroupedAssignmentsResponse{
		Pending:   []dto.GroupedAssignmentRow{},
		Active:    []dto.GroupedAssignmentRow{},
		Completed: []dto.GroupedAssignmentRow{},
	}
	for _, a := range assignments {
		row := dto.GroupedAssignmentRow{
			AssignmentID:   a.ID,
			CandidateName:  a.CandidateEmail,
			CandidateEmail: a.CandidateEmail,
			TestID:         a.TestID,
			TestTitle:      a.Test.Title,
			TestCategory:   a.Test.Category,
			Status:         string(a.Status),
		}
		if a.Candidate != nil && a.Candidate.Name != "" {
			row.CandidateName = a.Candidate.Name
		}
		if row.TestCategory == "" {
			row.TestCategory = defaultCategory
		}
		switch a.Status {
		case model.AssignmentPending:
			out.Pending = append(out.Pending, row)
		case model.AssignmentActive:
			out.Active = append(out.Active, row)
		case model.AssignmentCompleted:
			out.Completed = append(out.Completed, row)
		}
	}
	return out
}

func (s *assignmentService) ListTestAssignments(ctx context.Context, hrID, testID uint) ([]dto.AssignmentResponse, error) {
	if _, err := loadOwnedTest(ctx, s.testRepo, hrID, testID); err != nil {
		return nil, err
	}
	list, err := s.assignmentRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list assignments")
	}
	now := s.now()
	out := make([]dto.AssignmentResponse, 0, len(list))
	for i := range list {
		out = append(out, toAssignmentResponse(&list[i], now))
	}
	return out, nil
}

func (s *assignmentService) invalidateForTest(test *model.Test) {
	s.caches.Tests.Delete(
		cache.TestResultsKey(test.ID),
		cache.TestReportsKey(test.CreatedBy),
		cache.MonitorSessionsKey(test.CreatedBy),
	)
}
