package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
)

func newTestApprovalService(db *gorm.DB) *ApprovalService {
	r := newTestRepos(db)
	return NewApprovalService(r.contests, r.audits, r.users, &NoopEmailService{}, db).WithClock(testClock)
}

func TestApprovalService_Submit_MovesDraftIntoReview(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	contest := seedContest(t, db, sponsor, entity.StatusDraft, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))

	// Act
	err := svc.SubmitForApproval(contest.ID, sponsor)

	// Assert
	require.NoError(t, err)
	reloaded := reloadContest(t, db, contest.ID)
	assert.Equal(t, entity.StatusAwaitingApproval, reloaded.Status)
	require.NotNil(t, reloaded.SubmittedAt)

	records := auditRecords(t, db, contest.ID)
	require.Len(t, records, 1)
	assert.Equal(t, entity.StatusAwaitingApproval, records[0].NewStatus)
	assert.Equal(t, "submitted for approval", records[0].Reason)
}

func TestApprovalService_Submit_OnlyCreator(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	other := seedUser(t, db, entity.RoleSponsor)
	contest := seedContest(t, db, sponsor, entity.StatusDraft, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))

	err := svc.SubmitForApproval(contest.ID, other)

	require.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, entity.StatusDraft, reloadContest(t, db, contest.ID).Status)
}

func TestApprovalService_Submit_RejectsWrongState(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	contest := seedContest(t, db, sponsor, entity.StatusActive, testNow.Add(-time.Hour), testNow.Add(time.Hour))

	err := svc.SubmitForApproval(contest.ID, sponsor)

	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestApprovalService_Resubmit_ClearsRejectionFields(t *testing.T) {
	// A rejected contest carries the previous round's verdict until the
	// creator resubmits it.
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	rejectedAt := testNow.Add(-time.Hour)
	contest := &entity.Contest{
		Name:            "Autumn Giveaway",
		StartTime:       testNow.Add(24 * time.Hour),
		EndTime:         testNow.Add(48 * time.Hour),
		Status:          entity.StatusRejected,
		WinnerCount:     1,
		CreatedBy:       sponsor.ID,
		RejectedAt:      &rejectedAt,
		RejectionReason: "rules document missing",
	}
	require.NoError(t, db.Create(contest).Error)

	err := svc.SubmitForApproval(contest.ID, sponsor)

	require.NoError(t, err)
	reloaded := reloadContest(t, db, contest.ID)
	assert.Equal(t, entity.StatusAwaitingApproval, reloaded.Status)
	assert.Nil(t, reloaded.RejectedAt)
	assert.Empty(t, reloaded.RejectionReason)
}

func TestApprovalService_Withdraw_BackToDraft(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	contest := seedContest(t, db, sponsor, entity.StatusDraft, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))
	require.NoError(t, svc.SubmitForApproval(contest.ID, sponsor))

	err := svc.Withdraw(contest.ID, sponsor)

	require.NoError(t, err)
	reloaded := reloadContest(t, db, contest.ID)
	assert.Equal(t, entity.StatusDraft, reloaded.Status)
	assert.Nil(t, reloaded.SubmittedAt, "withdrawing must clear the submission timestamp")
}

func TestApprovalService_Approve_BeforeStartPublishesUpcoming(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, sponsor, entity.StatusAwaitingApproval, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))

	status, err := svc.Approve(contest.ID, admin, "looks good")

	require.NoError(t, err)
	assert.Equal(t, entity.StatusUpcoming, status)

	reloaded := reloadContest(t, db, contest.ID)
	assert.Equal(t, entity.StatusUpcoming, reloaded.Status)
	require.NotNil(t, reloaded.ApprovedAt)
	assert.Equal(t, "looks good", reloaded.ApprovalMessage)

	records := auditRecords(t, db, contest.ID)
	require.Len(t, records, 1)
	assert.Equal(t, "approved: looks good", records[0].Reason)
	require.NotNil(t, records[0].ActorID)
	assert.Equal(t, admin.ID, *records[0].ActorID)
}

func TestApprovalService_Approve_InsideWindowPublishesActive(t *testing.T) {
	// Approval landing mid-window must not strand the contest in upcoming.
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, sponsor, entity.StatusAwaitingApproval, testNow.Add(-time.Hour), testNow.Add(time.Hour))

	status, err := svc.Approve(contest.ID, admin, "")

	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, status)
	assert.Equal(t, entity.StatusActive, reloadContest(t, db, contest.ID).Status)
}

func TestApprovalService_Approve_PastWindowRefused(t *testing.T) {
	// Publishing a contest whose run window already closed would put it
	// straight into ended, which the review transitions never allow.
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, sponsor, entity.StatusAwaitingApproval, testNow.Add(-48*time.Hour), testNow.Add(-time.Hour))

	_, err := svc.Approve(contest.ID, admin, "")

	require.ErrorIs(t, err, apperrors.ErrInvalidState)

	reloaded := reloadContest(t, db, contest.ID)
	assert.Equal(t, entity.StatusAwaitingApproval, reloaded.Status, "a refused approval must not move the contest")
	assert.Nil(t, reloaded.ApprovedAt)
}

func TestApprovalService_Approve_RequiresAdmin(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	contest := seedContest(t, db, sponsor, entity.StatusAwaitingApproval, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))

	_, err := svc.Approve(contest.ID, sponsor, "")

	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestApprovalService_Reject_RequiresReason(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, sponsor, entity.StatusAwaitingApproval, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))

	err := svc.Reject(contest.ID, admin, "")

	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, entity.StatusAwaitingApproval, reloadContest(t, db, contest.ID).Status)
}

func TestApprovalService_Reject_RecordsVerdict(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, sponsor, entity.StatusAwaitingApproval, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))

	err := svc.Reject(contest.ID, admin, "prize description too vague")

	require.NoError(t, err)
	reloaded := reloadContest(t, db, contest.ID)
	assert.Equal(t, entity.StatusRejected, reloaded.Status)
	require.NotNil(t, reloaded.RejectedAt)
	assert.Equal(t, "prize description too vague", reloaded.RejectionReason)

	records := auditRecords(t, db, contest.ID)
	require.Len(t, records, 1)
	assert.Equal(t, "rejected: prize description too vague", records[0].Reason)
}

func TestApprovalService_BulkDecide_PartialFailure(t *testing.T) {
	// One contest in review, one still a draft: the draft must fail without
	// aborting the batch.
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	admin := seedUser(t, db, entity.RoleAdmin)
	inReview := seedContest(t, db, sponsor, entity.StatusAwaitingApproval, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))
	draft := seedContest(t, db, sponsor, entity.StatusDraft, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))

	results, err := svc.BulkDecide([]uint{inReview.ID, draft.ID}, admin, true, "")

	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Success)
	assert.Equal(t, entity.StatusUpcoming, results[0].NewStatus)

	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Error)

	assert.Equal(t, entity.StatusUpcoming, reloadContest(t, db, inReview.ID).Status)
	assert.Equal(t, entity.StatusDraft, reloadContest(t, db, draft.ID).Status)
}

func TestApprovalService_BulkDecide_RejectNeedsReasonUpfront(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestApprovalService(db)
	admin := seedUser(t, db, entity.RoleAdmin)

	_, err := svc.BulkDecide([]uint{1, 2}, admin, false, "")

	require.ErrorIs(t, err, apperrors.ErrValidation)
}
