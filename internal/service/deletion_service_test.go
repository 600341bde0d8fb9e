package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
)

// failingMediaStore always refuses to delete the asset.
type failingMediaStore struct{}

func (f *failingMediaStore) DeleteAsset(ctx context.Context, key string) error {
	return fmt.Errorf("media service unavailable")
}

func newTestDeletionService(db *gorm.DB, cache *fakeCache, media MediaStore) *DeletionService {
	r := newTestRepos(db)
	if media == nil {
		media = &NoopMediaStore{}
	}
	return NewDeletionService(
		r.contests, r.entries, r.winners, r.audits,
		r.rules, r.sms, r.notifs,
		cache, media, db,
	).WithClock(testClock)
}

func TestDeletionService_EvaluateProtection_ReportsAllReasons(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestDeletionService(db, newFakeCache(), nil)

	// A live contest with entries triggers both protections at once.
	contest := &entity.Contest{
		Status:    entity.StatusActive,
		StartTime: testNow.Add(-time.Hour),
		EndTime:   testNow.Add(time.Hour),
	}
	reasons := svc.EvaluateProtection(contest, 10)

	assert.ElementsMatch(t, []string{apperrors.ProtectionActiveContest, apperrors.ProtectionHasEntries}, reasons)
}

func TestDeletionService_Delete_RefusedWhileEntriesExist(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	svc := newTestDeletionService(db, newFakeCache(), nil)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, admin, entity.StatusDraft, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))
	seedEntries(t, db, contest.ID, 3)

	// Act
	summary, err := svc.DeleteContest(contest.ID, admin)

	// Assert
	require.Error(t, err)
	assert.Nil(t, summary)
	require.ErrorIs(t, err, apperrors.ErrContestProtected)

	var protected *apperrors.ProtectedError
	require.True(t, errors.As(err, &protected))
	assert.Contains(t, protected.Reasons, apperrors.ProtectionHasEntries)
	assert.Equal(t, contest.ID, protected.Details.ContestID)
	assert.Equal(t, int64(3), protected.Details.EntryCount)

	// Nothing was mutated.
	var count int64
	require.NoError(t, db.Model(&entity.Contest{}).Where("id = ?", contest.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeletionService_Delete_RefusedForCompleteContest(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestDeletionService(db, newFakeCache(), nil)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, admin, entity.StatusComplete, testNow.Add(-48*time.Hour), testNow.Add(-24*time.Hour))

	_, err := svc.DeleteContest(contest.ID, admin)

	var protected *apperrors.ProtectedError
	require.True(t, errors.As(err, &protected))
	assert.Contains(t, protected.Reasons, apperrors.ProtectionContestComplete)
	assert.True(t, protected.Details.IsComplete)
}

func TestDeletionService_Delete_CascadesEverything(t *testing.T) {
	// Arrange: an unprotected draft with the full set of owned records.
	db := setupTestDB(t)
	svc := newTestDeletionService(db, newFakeCache(), nil)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, admin, entity.StatusDraft, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))

	require.NoError(t, db.Create(&entity.OfficialRule{ContestID: contest.ID, Version: 1, Body: "rules"}).Error)
	require.NoError(t, db.Create(&entity.SmsTemplate{ContestID: contest.ID, Name: "welcome", Body: "hi"}).Error)
	require.NoError(t, db.Create(&entity.NotificationLog{ContestID: contest.ID, Phone: "+77015550000", Kind: entity.NotificationKindReminder, SentAt: testNow}).Error)
	require.NoError(t, db.Create(&entity.StatusAuditRecord{ContestID: contest.ID, NewStatus: entity.StatusDraft, Reason: "contest created"}).Error)

	// Act
	summary, err := svc.DeleteContest(contest.ID, admin)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, int64(1), summary.OfficialRules)
	assert.Equal(t, int64(1), summary.SmsTemplates)
	assert.Equal(t, int64(1), summary.NotificationLogs)
	assert.Equal(t, int64(1), summary.AuditRecords)
	assert.Zero(t, summary.Entries)
	assert.Zero(t, summary.Winners)
	assert.True(t, summary.MediaDeleted)

	for _, model := range []interface{}{
		&entity.Contest{}, &entity.OfficialRule{}, &entity.SmsTemplate{},
		&entity.NotificationLog{}, &entity.StatusAuditRecord{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T rows must be gone", model)
	}
}

func TestDeletionService_Delete_MediaFailureIsTolerated(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestDeletionService(db, newFakeCache(), &failingMediaStore{})
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, admin, entity.StatusDraft, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))
	contest.HeroImageKey = "contests/hero.jpg"
	require.NoError(t, db.Save(contest).Error)

	summary, err := svc.DeleteContest(contest.ID, admin)

	require.NoError(t, err, "a media failure must not abort the deletion")
	assert.False(t, summary.MediaDeleted)
	assert.NotEmpty(t, summary.MediaError)

	var count int64
	require.NoError(t, db.Model(&entity.Contest{}).Where("id = ?", contest.ID).Count(&count).Error)
	assert.Zero(t, count, "the contest row must be gone despite the media failure")
}

func TestDeletionService_Delete_LockContention(t *testing.T) {
	db := setupTestDB(t)
	cache := newFakeCache()
	cache.denySetNX = true
	svc := newTestDeletionService(db, cache, nil)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, admin, entity.StatusDraft, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))

	_, err := svc.DeleteContest(contest.ID, admin)

	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestDeletionService_Delete_OwnershipEnforced(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestDeletionService(db, newFakeCache(), nil)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	stranger := seedUser(t, db, entity.RoleSponsor)
	contest := seedContest(t, db, sponsor, entity.StatusDraft, testNow.Add(24*time.Hour), testNow.Add(48*time.Hour))

	_, err := svc.DeleteContest(contest.ID, stranger)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	// The creator may delete their own unprotected draft.
	_, err = svc.DeleteContest(contest.ID, sponsor)
	require.NoError(t, err)
}

func TestDeletionService_Delete_MissingContest(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestDeletionService(db, newFakeCache(), nil)
	admin := seedUser(t, db, entity.RoleAdmin)

	_, err := svc.DeleteContest(9999, admin)

	require.ErrorIs(t, err, apperrors.ErrNotFound)
}
