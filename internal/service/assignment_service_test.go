package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lshigami/Assessa/internal/apperror"
	"github.com/lshigami/Assessa/internal/auth"
	"github.com/lshigami/Assessa/internal/dto"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/lshigami/Assessa/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteCandidates_CreatesAndSkips(t *testing.T) {
	f := newFixture(t)
	test := f.createTest(t, f.hr, "Invite me", 2, false)

	resp := f.invite(t, test, "new1@example.com", " NEW2@example.com ", "not-an-email")
	require.Len(t, resp.Created, 2)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, skipInvalidEmail, resp.Skipped[0].Reason)
	assert.Equal(t, "2 candidate(s) assigned, 1 skipped", resp.Message)

	assert.Equal(t, "new2@example.com", resp.Created[1].CandidateEmail)
	for _, a := range resp.Created {
		assert.Equal(t, string(model.AssignmentPending), a.Status)
		assert.Equal(t, string(model.OriginInvited), a.Origin)
		assert.Len(t, a.AccessToken, 64)
		assert.True(t, a.InvitationSent)
		assert.Nil(t, a.CandidateID)
	}
	require.Len(t, f.mailer.sent, 2)
	assert.Equal(t, "http://client.test/test/token/"+resp.Created[0].AccessToken, f.mailer.sent[0].Link)

	again := f.invite(t, test, "new1@example.com", "new3@example.com", "new3@example.com")
	require.Len(t, again.Created, 1)
	require.Len(t, again.Skipped, 2)
	reasons := []string{again.Skipped[0].Reason, again.Skipped[1].Reason}
	assert.ElementsMatch(t, []string{skipAlreadyAssigned, skipDuplicateInput}, reasons)
}

func TestInviteCandidates_LinksRegisteredCandidate(t *testing.T) {
	f := newFixture(t)
	test := f.createTest(t, f.hr, "Linked", 1, false)

	resp := f.invite(t, test, f.candidate.Email)
	require.Len(t, resp.Created, 1)
	require.NotNil(t, resp.Created[0].CandidateID)
	assert.Equal(t, f.candidate.ID, *resp.Created[0].CandidateID)
	assert.Equal(t, f.candidate.Name, resp.Created[0].CandidateName)
}

func TestInviteCandidates_MailFailureKeepsAssignment(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")
	test := f.createTest(t, f.hr, "Quiet", 1, false)

	resp := f.invite(t, test, "quiet@example.com")
	require.Len(t, resp.Created, 1)
	assert.False(t, resp.Created[0].InvitationSent)
}

func TestInviteCandidates_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.createTest(t, f.hr, "Owned", 1, false)

	_, err := f.assignments.InviteCandidates(ctx, f.otherHR.ID, dto.InviteRequest{TestID: test.ID, Emails: []string{"a@example.com"}})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.assignments.InviteCandidates(ctx, f.hr.ID, dto.InviteRequest{TestID: 9999, Emails: []string{"a@example.com"}})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.assignments.InviteCandidates(ctx, f.hr.ID, dto.InviteRequest{TestID: test.ID})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestResolveByToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.createTest(t, f.hr, "Token test", 2, false)
	token := f.invite(t, test, "invitee@example.com").Created[0].AccessToken

	_, err := f.assignments.ResolveByToken(ctx, "does-not-exist", nil)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	anon, err := f.assignments.ResolveByToken(ctx, token, nil)
	require.NoError(t, err)
	assert.Equal(t, test.ID, anon.Test.ID)
	assert.Nil(t, anon.Test.Questions[0].Options[0].IsCorrect)

	_, err = f.assignments.ResolveByToken(ctx, token, &auth.Claims{UserID: f.candidate.ID, Email: f.candidate.Email, Role: model.RoleCandidate})
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	invitee := testutil.CreateUser(t, f.db, "Ivy", "invitee@example.com", model.RoleCandidate)
	viewer := claimsFor(invitee)
	resolved, err := f.assignments.ResolveByToken(ctx, token, &viewer)
	require.NoError(t, err)
	require.NotNil(t, resolved.Assignment.CandidateID)
	assert.Equal(t, invitee.ID, *resolved.Assignment.CandidateID)

	f.submit(t, invitee, test, 2)
	_, err = f.assignments.ResolveByToken(ctx, token, &viewer)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
}

func TestResolveByToken_Expired(t *testing.T) {
	f := newFixture(t)
	test := f.createTest(t, f.hr, "Short lived", 1, false)
	token := f.invite(t, test, "late@example.com").Created[0].AccessToken

	f.assignments.now = func() time.Time { return time.Now().Add(72 * time.Hour) }
	_, err := f.assignments.ResolveByToken(context.Background(), token, nil)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestStartOrResume_InvitedIsMonotonic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.createTest(t, f.hr, "Invited only", 2, false)
	f.invite(t, test, f.candidate.Email)
	who := claimsFor(f.candidate)

	first, created, err := f.assignments.StartOrResume(ctx, who, test.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, first.Resumed)
	assert.Equal(t, string(model.AssignmentActive), first.Assignment.Status)
	require.NotNil(t, first.Assignment.StartedAt)
	assert.Nil(t, first.Test.Questions[0].Options[0].IsCorrect)

	second, _, err := f.assignments.StartOrResume(ctx, who, test.ID)
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, string(model.AssignmentActive), second.Assignment.Status)
	require.NotNil(t, second.Assignment.StartedAt)
	assert.True(t, first.Assignment.StartedAt.Equal(*second.Assignment.StartedAt))

	f.submit(t, f.candidate, test, 2)

	_, _, err = f.assignments.StartOrResume(ctx, who, test.ID)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	stored, err := f.assignmentRepo.FindByID(ctx, first.Assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AssignmentCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
}

func TestStartOrResume_SelfServe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	who := claimsFor(f.candidate)

	open := f.createTest(t, f.hr, "Open", 1, true)
	resp, created, err := f.assignments.StartOrResume(ctx, who, open.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, string(model.OriginPublic), resp.Assignment.Origin)
	assert.Equal(t, string(model.AssignmentActive), resp.Assignment.Status)

	_, created, err = f.assignments.StartOrResume(ctx, who, open.ID)
	require.NoError(t, err)
	assert.False(t, created)

	closed := f.createTest(t, f.hr, "Closed", 1, false)
	_, _, err = f.assignments.StartOrResume(ctx, who, closed.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	_, _, err = f.assignments.StartOrResume(ctx, who, 9999)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestStartOrResume_ExpiredAssignment(t *testing.T) {
	f := newFixture(t)
	test := f.createTest(t, f.hr, "Expiring", 1, false)
	f.invite(t, test, f.candidate.Email)

	f.assignments.now = func() time.Time { return time.Now().Add(72 * time.Hour) }
	_, _, err := f.assignments.StartOrResume(context.Background(), claimsFor(f.candidate), test.ID)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}

func TestGroupByStatusForHR(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	test := f.createTest(t, f.hr, "Grouped", 1, true)
	f.invite(t, test, "pending@example.com", f.candidate.Email)

	second := testutil.CreateUser(t, f.db, "Sam", "sam@example.com", model.RoleCandidate)
	f.invite(t, test, second.Email)
	_, _, err := f.assignments.StartOrResume(ctx, claimsFor(second), test.ID)
	require.NoError(t, err)
	f.submit(t, f.candidate, test, 1)

	f.createTest(t, f.otherHR, "Not mine", 1, true)

	grouped, err := f.assignments.GroupByStatusForHR(ctx, f.hr.ID)
	require.NoError(t, err)
	require.Len(t, grouped.Pending, 1)
	require.Len(t, grouped.Active, 1)
	require.Len(t, grouped.Completed, 1)
	assert.Equal(t, "pending@example.com", grouped.Pending[0].CandidateName)
	assert.Equal(t, "Sam", grouped.Active[0].CandidateName)
	assert.Equal(t, defaultCategory, grouped.Completed[0].TestCategory)
	assert.Equal(t, "Grouped", grouped.Completed[0].TestTitle)

	list, err := f.assignments.ListTestAssignments(ctx, f.hr.ID, test.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = f.assignments.ListTestAssignments(ctx, f.otherHR.ID, test.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
