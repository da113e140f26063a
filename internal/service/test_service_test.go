package service

import (
	"context"
	"testing"

	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTest_DefaultsAndRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.tests.CreateTest(ctx, f.hr.ID, dto.TestCreateRequest{
		Title:     "  Go basics ",
		Questions: questionInputs(5),
	})
	require.NoError(t, err)

	assert.Equal(t, "Go basics", created.Title)
	assert.Equal(t, model.DefaultDuration, created.Duration)
	assert.Equal(t, model.DefaultPassingScore, created.PassingScore)
	assert.Equal(t, string(model.AccessInvited), created.AccessType)
	assert.False(t, created.Published)
	assert.Equal(t, f.hr.ID, created.CreatedBy)

	require.Len(t, created.Questions, 5)
	for i, q := range created.Questions {
		assert.Equal(t, i, q.Position)
		assert.NotEmpty(t, q.ID)
		require.Len(t, q.Options, 4)
		for j, o := range q.Options {
			assert.Equal(t, j, o.Position)
			require.NotNil(t, o.IsCorrect)
			assert.Equal(t, j == 0, *o.IsCorrect)
		}
	}

	owner, err := f.tests.GetTestByID(ctx, claimsFor(f.hr), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Questions, owner.Questions)
}

func TestCreateTest_ExplicitZeroPassingScore(t *testing.T) {
	f := newFixture(t)
	zero := 0
	created, err := f.tests.CreateTest(context.Background(), f.hr.ID, dto.TestCreateRequest{
		Title:        "Warm-up",
		PassingScore: &zero,
		Duration:     45,
		AccessType:   "PUBLIC",
		Questions:    questionInputs(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, created.PassingScore)
	assert.Equal(t, 45, created.Duration)
	assert.Equal(t, string(model.AccessPublic), created.AccessType)
}

func TestCreateTest_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	blankOption := questionInputs(1)
	blankOption[0].Options[2].Text = "   "
	noCorrect := questionInputs(2)
	for i := range noCorrect[1].Options {
		noCorrect[1].Options[i].IsCorrect = false
	}

	tests := []struct {
		name string
		req  dto.TestCreateRequest
	}{
		{"blank title", dto.TestCreateRequest{Title: "  ", Questions: questionInputs(1)}},
		{"no questions", dto.TestCreateRequest{Title: "T"}},
		{"question without options", dto.TestCreateRequest{Title: "T", Questions: []dto.QuestionInput{{Text: "Q"}}}},
		{"blank option", dto.TestCreateRequest{Title: "T", Questions: blankOption}},
		{"no correct option", dto.TestCreateRequest{Title: "T", Questions: noCorrect}},
		{"bad access type", dto.TestCreateRequest{Title: "T", AccessType: "secret", Questions: questionInputs(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tests.CreateTest(ctx, f.hr.ID, tt.req)
			assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
		})
	}
}

func TestCreateTest_RefreshesOwnerReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.createTest(t, f.hr, "First", 1, true)

	reports, err := f.reports.TestReportSummary(ctx, f.hr.ID)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	// Left unpublished so creation is the only write touching the cache.
	_, err = f.tests.CreateTest(ctx, f.hr.ID, dto.TestCreateRequest{Title: "Second", Questions: questionInputs(1)})
	require.NoError(t, err)

	reports, err = f.reports.TestReportSummary(ctx, f.hr.ID)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestGetTestByID_UnpublishedPublicTest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	open, err := f.tests.CreateTest(ctx, f.hr.ID, dto.TestCreateRequest{
		Title:      "Open draft",
		AccessType: string(model.AccessPublic),
		Questions:  questionInputs(2),
	})
	require.NoError(t, err)
	require.False(t, open.Published)

	view, err := f.tests.GetTestByID(ctx, claimsFor(f.candidate), open.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Questions[0].Options[0].IsCorrect)

	_, _, err = f.assignments.StartOrResume(ctx, claimsFor(f.candidate), open.ID)
	require.NoError(t, err)
}

func TestGetTestByID_CandidateView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.createTest(t, f.hr, "Draft", 2, false)

	_, err := f.tests.GetTestByID(ctx, claimsFor(f.candidate), draft.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	f.invite(t, draft, f.candidate.Email)
	view, err := f.tests.GetTestByID(ctx, claimsFor(f.candidate), draft.ID)
	require.NoError(t, err)
	for _, q := range view.Questions {
		for _, o := range q.Options {
			assert.Nil(t, o.IsCorrect)
		}
	}

	published := f.createTest(t, f.hr, "Published", 2, true)
	view, err = f.tests.GetTestByID(ctx, claimsFor(f.candidate), published.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Questions[0].Options[0].IsCorrect)

	// Another HR user sees the test but not its answers.
	view, err = f.tests.GetTestByID(ctx, claimsFor(f.otherHR), published.ID)
	require.NoError(t, err)
	assert.Nil(t, view.Questions[0].Options[0].IsCorrect)

	_, err = f.tests.GetTestByID(ctx, claimsFor(f.candidate), 9999)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestGetAvailableTests_ExcludesAttemptedAndUnpublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.createTest(t, f.hr, "First", 2, true)
	second := f.createTest(t, f.hr, "Second", 3, true)
	f.createTest(t, f.hr, "Hidden", 1, false)

	avail, err := f.tests.GetAvailableTests(ctx, f.candidate.ID)
	require.NoError(t, err)
	require.Len(t, avail, 2)
	assert.Equal(t, second.ID, avail[0].ID)
	assert.Equal(t, 3, avail[0].QuestionCount)

	f.submit(t, f.candidate, first, 2)

	avail, err = f.tests.GetAvailableTests(ctx, f.candidate.ID)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, second.ID, avail[0].ID)

	dash, err := f.tests.GetDashboardTests(ctx, f.candidate.ID)
	require.NoError(t, err)
	require.Len(t, dash, 2)
	for _, d := range dash {
		assert.Equal(t, d.ID == first.ID, d.Attempted)
	}
}

func TestGetAvailableTests_PublishInvalidatesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft := f.createTest(t, f.hr, "Later", 1, false)

	avail, err := f.tests.GetAvailableTests(ctx, f.candidate.ID)
	require.NoError(t, err)
	assert.Empty(t, avail)

	_, err = f.tests.TogglePublish(ctx, f.hr.ID, draft.ID)
	require.NoError(t, err)

	avail, err = f.tests.GetAvailableTests(ctx, f.candidate.ID)
	require.NoError(t, err)
	assert.Len(t, avail, 1)
}

func TestUpdateTest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.createTest(t, f.hr, "Editable", 2, true)

	title := "Renamed"
	_, err := f.tests.UpdateTest(ctx, f.otherHR.ID, test.ID, dto.TestUpdateRequest{Title: &title})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, err = f.tests.UpdateTest(ctx, f.hr.ID, 9999, dto.TestUpdateRequest{Title: &title})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	updated, err := f.tests.UpdateTest(ctx, f.hr.ID, test.ID, dto.TestUpdateRequest{
		Title:     &title,
		Questions: questionInputs(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Len(t, updated.Questions, 3)
	assert.NotEqual(t, test.Questions[0].ID, updated.Questions[0].ID)

	f.submit(t, f.candidate, updated, 3)

	_, err = f.tests.UpdateTest(ctx, f.hr.ID, test.ID, dto.TestUpdateRequest{Questions: questionInputs(1)})
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	duration := 90
	updated, err = f.tests.UpdateTest(ctx, f.hr.ID, test.ID, dto.TestUpdateRequest{Duration: &duration})
	require.NoError(t, err)
	assert.Equal(t, 90, updated.Duration)
	assert.Len(t, updated.Questions, 3)

	bad := 101
	_, err = f.tests.UpdateTest(ctx, f.hr.ID, test.ID, dto.TestUpdateRequest{PassingScore: &bad})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestTogglePublish_OtherOwnerNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.createTest(t, f.hr, "Mine", 1, false)

	_, err := f.tests.TogglePublish(ctx, f.otherHR.ID, test.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	resp, err := f.tests.TogglePublish(ctx, f.hr.ID, test.ID)
	require.NoError(t, err)
	assert.True(t, resp.Published)
	resp, err = f.tests.TogglePublish(ctx, f.hr.ID, test.ID)
	require.NoError(t, err)
	assert.False(t, resp.Published)
}

func TestDeleteTest_KeepsAttemptHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.createTest(t, f.hr, "Retired", 2, true)
	f.submit(t, f.candidate, test, 1)

	err := f.tests.DeleteTest(ctx, f.otherHR.ID, test.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	require.NoError(t, f.tests.DeleteTest(ctx, f.hr.ID, test.ID))

	owned, err := f.tests.ListOwnedTests(ctx, f.hr.ID)
	require.NoError(t, err)
	assert.Empty(t, owned)

	mine, err := f.attempts.GetMine(ctx, f.candidate.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Retired", mine[0].TestTitle)
	assert.True(t, mine[0].TestDeleted)

	err = f.tests.DeleteTest(ctx, f.hr.ID, test.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
