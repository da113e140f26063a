package service

import (
	"context"
	"testing"
	"time"

	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/lshigami/Assessa/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedAttempt(score int) model.Attempt {
	return model.Attempt{Score: score, Status: model.AttemptCompleted}
}

func TestScoreStats(t *testing.T) {
	avg, passRate, completed := scoreStats(nil, 70)
	assert.Zero(t, avg)
	assert.Zero(t, passRate)
	assert.Zero(t, completed)

	attempts := []model.Attempt{completedAttempt(70), completedAttempt(85), completedAttempt(90), {Score: 10, Status: model.AttemptInProgress}}
	avg, passRate, completed = scoreStats(attempts, 80)
	assert.Equal(t, 81.7, avg)
	assert.Equal(t, 67, passRate)
	assert.Equal(t, 3, completed)
}

func TestBuildTestResults_UnionsAssignmentsAndAttempts(t *testing.T) {
	test := &model.Test{ID: 7, Title: "Union", PassingScore: 60, Duration: 20, Questions: make([]model.Question, 4)}
	bobID := uint(2)
	assignments := []model.Assignment{
		{ID: 1, TestID: 7, CandidateEmail: "ann@example.com", Status: model.AssignmentPending},
		{ID: 2, TestID: 7, CandidateEmail: "bob@example.com", CandidateID: &bobID, Status: model.AssignmentActive,
			Candidate: &model.User{ID: 2, Name: "Bob"}},
	}
	attempts := []model.Attempt{
		{ID: 10, TestID: 7, CandidateID: 2, Score: 50, Status: model.AttemptCompleted, Candidate: model.User{ID: 2, Name: "Bob", Email: "BOB@example.com"}},
		{ID: 11, TestID: 7, CandidateID: 3, Score: 100, Status: model.AttemptCompleted, Candidate: model.User{ID: 3, Name: "Cy", Email: "cy@example.com"}},
	}

	res := buildTestResults(test, assignments, attempts)
	require.Len(t, res.Results, 3)

	ann, bob, cy := res.Results[0], res.Results[1], res.Results[2]
	assert.Equal(t, "ann@example.com", ann.CandidateName)
	assert.Nil(t, ann.Score)
	assert.Nil(t, ann.Passed)
	assert.Equal(t, string(model.AssignmentPending), ann.Status)

	require.NotNil(t, bob.Score)
	assert.Equal(t, 50, *bob.Score)
	assert.False(t, *bob.Passed)
	assert.True(t, bob.HasAssignment)
	assert.True(t, bob.HasAttempt)
	assert.Equal(t, string(model.AssignmentCompleted), bob.Status)

	assert.Equal(t, "Cy", cy.CandidateName)
	assert.False(t, cy.HasAssignment)
	assert.True(t, *cy.Passed)

	s := res.Summary
	assert.Equal(t, 2, s.TotalAssigned)
	assert.Equal(t, 3, s.TotalCandidates)
	assert.Equal(t, 2, s.Completed)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 0, s.InProgress)
	assert.Equal(t, 75.0, s.AvgScore)
	assert.Equal(t, 50, s.PassRate)
	assert.Equal(t, 4, s.QuestionCount)
	assert.Equal(t, 2, s.CandidatesWithAssignments)
	assert.Equal(t, 1, s.CandidatesWithoutAssignments)
	assert.Equal(t, defaultCategory, s.TestCategory)
}

func TestBuildMonitorSessions(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-10 * time.Minute)
	tests := map[uint]model.Test{1: {ID: 1, Title: "Live", Duration: 30}}
	assignments := []model.Assignment{
		{TestID: 1, CandidateEmail: "wait@example.com", Status: model.AssignmentPending, ExpiresAt: now.Add(time.Hour)},
		{TestID: 1, CandidateEmail: "late@example.com", Status: model.AssignmentPending, ExpiresAt: now.Add(-time.Hour)},
		{TestID: 1, CandidateEmail: "busy@example.com", Status: model.AssignmentActive, StartedAt: &started, ExpiresAt: now.Add(time.Hour)},
		{TestID: 2, CandidateEmail: "other@example.com", Status: model.AssignmentActive},
	}
	attempts := []model.Attempt{
		{TestID: 1, Score: 80, Violations: 3, Status: model.AttemptCompleted, Candidate: model.User{Name: "Done", Email: "done@example.com"}},
	}

	sessions := buildMonitorSessions(tests, assignments, attempts, now)
	require.Len(t, sessions, 4)

	assert.Equal(t, "busy@example.com_1", sessions[0].ID)
	assert.Equal(t, sessionActive, sessions[0].Status)
	assert.Equal(t, 50, sessions[0].Progress)
	assert.Equal(t, "20 min", sessions[0].TimeRemaining)

	assert.Equal(t, sessionNotStarted, sessions[1].Status)
	assert.Equal(t, "late@example.com", sessions[1].CandidateEmail)
	assert.True(t, sessions[1].Expired)
	assert.Equal(t, "wait@example.com", sessions[2].CandidateEmail)
	assert.False(t, sessions[2].Expired)
	assert.Equal(t, "30 min", sessions[2].TimeRemaining)

	done := sessions[3]
	assert.Equal(t, sessionCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, 3, done.Violations)
	require.NotNil(t, done.Score)
	assert.Equal(t, 80, *done.Score)
	assert.Equal(t, "Done", done.CandidateName)
}

func TestRemaining(t *testing.T) {
	now := time.Now()
	long := now.Add(-2 * time.Hour)
	assert.Equal(t, "0 min", remaining(30, &long, now))
	assert.Equal(t, "45 min", remaining(45, nil, now))
}

func TestTestReportSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiet := f.createTest(t, f.hr, "Nobody yet", 2, true)
	busy := f.createTest(t, f.hr, "Busy", 2, true)
	f.invite(t, busy, f.candidate.Email, "someone@example.com")

	reports, err := f.reports.TestReportSummary(ctx, f.hr.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	byID := map[uint]int{}
	for i, r := range reports {
		byID[r.TestID] = i
	}
	assert.Zero(t, reports[byID[quiet.ID]].AvgScore)
	assert.Zero(t, reports[byID[quiet.ID]].PassRate)
	assert.Equal(t, 2, reports[byID[busy.ID]].CandidatesAssigned)
	assert.Zero(t, reports[byID[busy.ID]].CompletedCount)

	f.submit(t, f.candidate, busy, 1)
	second := testutil.CreateUser(t, f.db, "Second", "second@example.com", model.RoleCandidate)
	f.submit(t, second, busy, 2)

	reports, err = f.reports.TestReportSummary(ctx, f.hr.ID)
	require.NoError(t, err)
	report := reports[byID[busy.ID]]
	assert.Equal(t, 2, report.CompletedCount)
	assert.Equal(t, 75.0, report.AvgScore)
	assert.Equal(t, 50, report.PassRate)

	none, err := f.reports.TestReportSummary(ctx, f.otherHR.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTestResultsDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.createTest(t, f.hr, "Results", 2, true)
	f.invite(t, test, "pending@example.com")

	_, err := f.reports.TestResultsDetail(ctx, f.otherHR.ID, test.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	res, err := f.reports.TestResultsDetail(ctx, f.hr.ID, test.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.TotalCandidates)

	f.submit(t, f.candidate, test, 2)

	res, err = f.reports.TestResultsDetail(ctx, f.hr.ID, test.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.TotalCandidates)
	assert.Equal(t, 1, res.Summary.Completed)
	assert.Equal(t, 100.0, res.Summary.AvgScore)
}

func TestMonitorSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.createTest(t, f.hr, "Watched", 1, false)
	f.invite(t, test, f.candidate.Email, "idle@example.com")
	_, _, err := f.assignments.StartOrResume(ctx, claimsFor(f.candidate), test.ID)
	require.NoError(t, err)

	sessions, err := f.reports.MonitorSessions(ctx, f.hr.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, sessionActive, sessions[0].Status)
	assert.Equal(t, f.candidate.Name, sessions[0].CandidateName)
	assert.Equal(t, sessionNotStarted, sessions[1].Status)
}
