package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/cache"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/lshigami/Assessa/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	sessionNotStarted = "not-started"
	sessionActive     = "active"
	sessionCompleted  = "completed"
)

// ReportService aggregates tests, assignments and attempts for HR. It never writes.
type ReportService interface {
	TestReportSummary(ctx context.Context, hrID uint) ([]dto.TestReport, error)
	TestResultsDetail(ctx context.Context, hrID, testID uint) (*dto.TestResultsResponse, error)
	MonitorSessions(ctx context.Context, hrID uint) ([]dto.MonitorSession, error)
}

type reportService struct {
	testRepo       repository.TestRepository
	assignmentRepo repository.AssignmentRepository
	attemptRepo    repository.AttemptRepository
	caches         *cache.Caches
	now            func() time.Time
}

func NewReportService(
	testRepo repository.TestRepository,
	assignmentRepo repository.AssignmentRepository,
	attemptRepo repository.AttemptRepository,
	caches *cache.Caches,
) ReportService {
	return &reportService{
		testRepo:       testRepo,
		assignmentRepo: assignmentRepo,
		attemptRepo:    attemptRepo,
		caches:         caches,
		now:            time.Now,
	}
}

func (s *reportService) TestReportSummary(ctx context.Context, hrID uint) ([]dto.TestReport, error) {
	key := cache.TestReportsKey(hrID)
	if cached, ok := cache.GetAs[[]dto.TestReport](s.caches.Tests, key); ok {
		return cached, nil
	}

	tests, assignments, attempts, err := s.loadForHR(ctx, hrID)
	if err != nil {
		return nil, err
	}
	assignmentsByTest := make(map[uint][]model.Assignment)
	for _, a := range assignments {
		assignmentsByTest[a.TestID] = append(assignmentsByTest[a.TestID], a)
	}
	attemptsByTest := make(map[uint][]model.Attempt)
	for _, a := range attempts {
		attemptsByTest[a.TestID] = append(attemptsByTest[a.TestID], a)
	}

	out := make([]dto.TestReport, 0, len(tests))
	for _, t := range tests {
		out = append(out, buildTestReport(t.Test, assignmentsByTest[t.ID], attemptsByTest[t.ID]))
	}
	s.caches.Tests.Set(key, out)
	return out, nil
}

func buildTestReport(test model.Test, assignments []model.Assignment, attempts []model.Attempt) dto.TestReport {
	avg, passRate, completed := scoreStats(attempts, test.PassingScore)
	return dto.TestReport{
		TestID:             test.ID,
		Title:              test.Title,
		Category:           test.Category,
		Published:          test.Published,
		PassingScore:       test.PassingScore,
		CandidatesAssigned: len(assignments),
		CompletedCount:     completed,
		AvgScore:           avg,
		PassRate:           passRate,
		CreatedAt:          test.CreatedAt,
	}
}

// scoreStats returns the mean score to one decimal, the integer pass rate and
// the number of completed attempts. Both figures are 0 with no completions.
func scoreStats(attempts []model.Attempt, passingScore int) (float64, int, int) {
	completed, passed, total := 0, 0, 0
	for _, a := range attempts {
		if a.Status != model.AttemptCompleted {
			continue
		}
		completed++
		total += a.Score
		if a.Score >= passingScore {
			passed++
		}
	}
	if completed == 0 {
		return 0, 0, 0
	}
	return roundTo1(float64(total) / float64(completed)), Percent(passed, completed), completed
}

func (s *reportService) TestResultsDetail(ctx context.Context, hrID, testID uint) (*dto.TestResultsResponse, error) {
	if _, err := loadOwnedTest(ctx, s.testRepo, hrID, testID); err != nil {
		return nil, err
	}
	key := cache.TestResultsKey(testID)
	if cached, ok := cache.GetAs[*dto.TestResultsResponse](s.caches.Tests, key); ok {
		return cached, nil
	}

	test, err := s.testRepo.FindByIDWithQuestions(ctx, testID)
	if err != nil {
		return nil, notFoundOr(err, "test not found", "failed to load test")
	}
	assignments, err := s.assignmentRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list assignments")
	}
	attempts, err := s.attemptRepo.ListByTest(ctx, testID)
	if err != nil {
		return nil, apperror.Internal(err, "failed to list attempts")
	}

	resp := buildTestResults(test, assignments, attempts)
	s.caches.Tests.Set(key, resp)
	return resp, nil
}

// buildTestResults unions assignments and attempts by candidate email, so
// attempt-only candidates are listed as well as those still pending.
func buildTestResults(test *model.Test, assignments []model.Assignment, attempts []model.Attempt) *dto.TestResultsResponse {
	rows := make([]dto.ResultRow, 0, len(assignments)+len(attempts))
	index := make(map[string]int)

	for i := range assignments {
		a := &assignments[i]
		email := normalizeEmail(a.CandidateEmail)
		id := a.ID
		assignedAt := a.CreatedAt
		row := dto.ResultRow{
			AssignmentID:   &id,
			CandidateEmail: email,
			CandidateName:  email,
			CandidateID:    a.CandidateID,
			Status:         string(a.Status),
			AssignedAt:     &assignedAt,
			HasAssignment:  true,
		}
		if a.Candidate != nil && a.Candidate.Name != "" {
			row.CandidateName = a.Candidate.Name
		}
		if _, dup := index[email]; dup {
			continue
		}
		index[email] = len(rows)
		rows = append(rows, row)
	}

	for i := range attempts {
		at := &attempts[i]
		email := normalizeEmail(at.Candidate.Email)
		pos, ok := index[email]
		if !ok {
			rows = append(rows, dto.ResultRow{CandidateEmail: email, CandidateName: email})
			pos = len(rows) - 1
			index[email] = pos
		}
		row := &rows[pos]
		attemptID, candidateID, score, duration, submitted := at.ID, at.CandidateID, at.Score, at.DurationSeconds, at.SubmittedAt
		passed := score >= test.PassingScore
		row.AttemptID = &attemptID
		row.CandidateID = &candidateID
		row.Score = &score
		row.Passed = &passed
		row.DurationSeconds = &duration
		row.SubmittedAt = &submitted
		row.Status = string(model.AssignmentCompleted)
		row.HasAttempt = true
		if at.Candidate.Name != "" {
			row.CandidateName = at.Candidate.Name
		}
	}

	summary := dto.ResultsSummary{
		TestTitle:       test.Title,
		TestCategory:    test.Category,
		TotalAssigned:   len(assignments),
		TotalCandidates: len(rows),
		PassingScore:    test.PassingScore,
		QuestionCount:   len(test.Questions),
		Duration:        test.Duration,
	}
	if summary.TestCategory == "" {
		summary.TestCategory = defaultCategory
	}
	summary.AvgScore, summary.PassRate, summary.Completed = scoreStats(attempts, test.PassingScore)
	for _, r := range rows {
		if r.HasAssignment {
			summary.CandidatesWithAssignments++
		} else {
			summary.CandidatesWithoutAssignments++
		}
		if r.HasAttempt {
			continue
		}
		switch model.AssignmentStatus(r.Status) {
		case model.AssignmentPending:
			summary.Pending++
		case model.AssignmentActive:
			summary.InProgress++
		}
	}

	return &dto.TestResultsResponse{TestID: test.ID, Summary: summary, Results: rows}
}

func (s *reportService) MonitorSessions(ctx context.Context, hrID uint) ([]dto.MonitorSession, error) {
	key := cache.MonitorSessionsKey(hrID)
	if cached, ok := cache.GetAs[[]dto.MonitorSession](s.caches.Tests, key); ok {
		return cached, nil
	}
	tests, assignments, attempts, err := s.loadForHR(ctx, hrID)
	if err != nil {
		return nil, err
	}
	headers := make(map[uint]model.Test, len(tests))
	for _, t := range tests {
		headers[t.ID] = t.Test
	}
	out := buildMonitorSessions(headers, assignments, attempts, s.now())
	s.caches.Tests.Set(key, out)
	return out, nil
}

// buildMonitorSessions classifies every candidate-test pair. Progress is a
// coarse 0/50/100 derived from state, not live telemetry.
func buildMonitorSessions(tests map[uint]model.Test, assignments []model.Assignment, attempts []model.Attempt, now time.Time) []dto.MonitorSession {
	sessions := make(map[string]*dto.MonitorSession)
	var order []string

	for i := range assignments {
		a := &assignments[i]
		test, ok := tests[a.TestID]
		if !ok {
			continue
		}
		email := normalizeEmail(a.CandidateEmail)
		id := fmt.Sprintf("%s_%d", email, a.TestID)
		if _, dup := sessions[id]; dup {
			continue
		}
		ms := &dto.MonitorSession{
			ID:             id,
			TestID:         a.TestID,
			TestTitle:      test.Title,
			CandidateEmail: email,
			CandidateName:  email,
			StartedAt:      a.StartedAt,
		}
		if a.Candidate != nil && a.Candidate.Name != "" {
			ms.CandidateName = a.Candidate.Name
		}
		switch a.Status {
		case model.AssignmentActive:
			ms.Status, ms.Progress = sessionActive, 50
			ms.TimeRemaining = remaining(test.Duration, a.StartedAt, now)
		case model.AssignmentCompleted:
			ms.Status, ms.Progress = sessionCompleted, 100
			ms.TimeRemaining = "0 min"
		default:
			ms.Status, ms.Progress = sessionNotStarted, 0
			ms.TimeRemaining = fmt.Sprintf("%d min", test.Duration)
		}
		ms.Expired = a.Status != model.AssignmentCompleted && a.IsExpired(now)
		sessions[id] = ms
		order = append(order, id)
	}

	for i := range attempts {
		at := &attempts[i]
		test, ok := tests[at.TestID]
		if !ok {
			continue
		}
		email := normalizeEmail(at.Candidate.Email)
		id := fmt.Sprintf("%s_%d", email, at.TestID)
		ms, ok := sessions[id]
		if !ok {
			ms = &dto.MonitorSession{
				ID:             id,
				TestID:         at.TestID,
				TestTitle:      test.Title,
				CandidateEmail: email,
				CandidateName:  email,
				StartedAt:      at.StartedAt,
			}
			sessions[id] = ms
			order = append(order, id)
		}
		if at.Candidate.Name != "" {
			ms.CandidateName = at.Candidate.Name
		}
		score := at.Score
		ms.Status, ms.Progress, ms.TimeRemaining = sessionCompleted, 100, "0 min"
		ms.Expired = false
		ms.Violations = at.Violations
		ms.Score = &score
	}

	out := make([]dto.MonitorSession, 0, len(order))
	for _, id := range order {
		out = append(out, *sessions[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ri, rj := sessionRank(out[i].Status), sessionRank(out[j].Status); ri != rj {
			return ri < rj
		}
		if out[i].TestID != out[j].TestID {
			return out[i].TestID < out[j].TestID
		}
		return strings.Compare(out[i].CandidateEmail, out[j].CandidateEmail) < 0
	})
	return out
}

func sessionRank(status string) int {
	switch status {
	case sessionActive:
		return 0
	case sessionNotStarted:
		return 1
	default:
		return 2
	}
}

func remaining(durationMin int, startedAt *time.Time, now time.Time) string {
	if startedAt == nil {
		return fmt.Sprintf("%d min", durationMin)
	}
	left := time.Duration(durationMin)*time.Minute - now.Sub(*startedAt)
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("%d min", int(left.Minutes()))
}

func (s *reportService) loadForHR(ctx context.Context, hrID uint) ([]repository.TestWithCount, []model.Assignment, []model.Attempt, error) {
	tests, err := s.testRepo.ListByCreator(ctx, hrID)
	if err != nil {
		log.Error().Err(err).Uint("hrID", hrID).Msg("Failed to list tests for report")
		return nil, nil, nil, apperror.Internal(err, "failed to list tests")
	}
	ids := make([]uint, 0, len(tests))
	for _, t := range tests {
		ids = append(ids, t.ID)
	}
	assignments, err := s.assignmentRepo.ListByTests(ctx, ids)
	if err != nil {
		return nil, nil, nil, apperror.Internal(err, "failed to list assignments")
	}
	attempts, err := s.attemptRepo.ListByTests(ctx, ids)
	if err != nil {
		return nil, nil, nil, apperror.Internal(err, "failed to list attempts")
	}
	return tests, assignments, attempts, nil
}
