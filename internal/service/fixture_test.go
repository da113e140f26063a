package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/Assessa/config"
	"github.com/lshigami/Assessa/internal/auth"
	"github.com/lshigami/Assessa/internal/cache"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/lshigami/Assessa/internal/repository"
	"github.com/lshigami/Assessa/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubMailer struct {
	mu   sync.Mutex
	sent []Invitation
	err  error
}

func (m *stubMailer) SendInvitation(_ context.Context, inv Invitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, inv)
	return nil
}

type fixture struct {
	db          *gorm.DB
	caches      *cache.Caches
	mailer      *stubMailer
	tests       *testService
	assignments *assignmentService
	attempts    *attemptService
	reports     *reportService
	auth        *authService

	assignmentRepo repository.AssignmentRepository
	attemptRepo    repository.AttemptRepository

	hr        *model.User
	otherHR   *model.User
	candidate *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	userRepo := repository.NewUserRepository(db)
	testRepo := repository.NewTestRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "fixture-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Auth.AssignmentTTL = 48 * time.Hour
	cfg.Server.ClientURL = "http://client.test"

	caches := cache.NewCaches(time.Minute, time.Minute)
	mailer := &stubMailer{}

	f := &fixture{
		db:             db,
		caches:         caches,
		mailer:         mailer,
		tests:          NewTestService(testRepo, questionRepo, attemptRepo, assignmentRepo, caches, db).(*testService),
		assignments:    NewAssignmentService(assignmentRepo, testRepo, attemptRepo, userRepo, mailer, caches, cfg).(*assignmentService),
		attempts:       NewAttemptService(attemptRepo, assignmentRepo, testRepo, caches, db).(*attemptService),
		reports:        NewReportService(testRepo, assignmentRepo, attemptRepo, caches).(*reportService),
		auth:           NewAuthService(userRepo, assignmentRepo, auth.NewTokenManager(cfg)).(*authService),
		assignmentRepo: assignmentRepo,
		attemptRepo:    attemptRepo,
	}
	f.hr = testutil.CreateUser(t, db, "Hannah HR", "hr@example.com", model.RoleHR)
	f.otherHR = testutil.CreateUser(t, db, "Otto HR", "other-hr@example.com", model.RoleHR)
	f.candidate = testutil.CreateUser(t, db, "Cara Candidate", "cara@example.com", model.RoleCandidate)
	return f
}

func claimsFor(u *model.User) auth.Claims {
	return auth.Claims{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// questionInputs builds n single-choice questions with four options each,
// the first option being correct.
func questionInputs(n int) []dto.QuestionInput {
	out := make([]dto.QuestionInput, 0, n)
	for i := 0; i < n; i++ {
		q := dto.QuestionInput{Text: fmt.Sprintf("Question %d", i+1)}
		for j := 0; j < 4; j++ {
			q.Options = append(q.Options, dto.OptionInput{
				Text:      fmt.Sprintf("Q%d option %d", i+1, j+1),
				IsCorrect: j == 0,
			})
		}
		out = append(out, q)
	}
	return out
}

// createTest creates a test owned by hr with n questions.
func (f *fixture) createTest(t *testing.T, hr *model.User, title string, n int, published bool) *dto.TestResponse {
	t.Helper()
	ctx := context.Background()
	resp, err := f.tests.CreateTest(ctx, hr.ID, dto.TestCreateRequest{Title: title, Questions: questionInputs(n)})
	require.NoError(t, err)
	if published {
		resp, err = f.tests.TogglePublish(ctx, hr.ID, resp.ID)
		require.NoError(t, err)
	}
	return resp
}

// answersFor answers every question; the first `right` get the correct option.
func answersFor(test *dto.TestResponse, right int) []dto.AnswerInput {
	out := make([]dto.AnswerInput, 0, len(test.Questions))
	for i, q := range test.Questions {
		pick := 1
		if i < right {
			pick = 0
		}
		out = append(out, dto.AnswerInput{QuestionID: q.ID, SelectedOptions: []int{pick}})
	}
	return out
}

func (f *fixture) submit(t *testing.T, who *model.User, test *dto.TestResponse, right int) *dto.AttemptResponse {
	t.Helper()
	resp, err := f.attempts.Submit(context.Background(), claimsFor(who), test.ID, dto.SubmitAttemptRequest{Answers: answersFor(test, right)})
	require.NoError(t, err)
	return resp
}

func (f *fixture) invite(t *testing.T, test *dto.TestResponse, emails ...string) *dto.InviteResponse {
	t.Helper()
	resp, err := f.assignments.InviteCandidates(context.Background(), test.CreatedBy, dto.InviteRequest{TestID: test.ID, Emails: emails})
	require.NoError(t, err)
	return resp
}
