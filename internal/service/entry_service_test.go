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

func newTestEntryService(db *gorm.DB) *EntryService {
	r := newTestRepos(db)
	return NewEntryService(r.contests, r.entries, r.winners).WithClock(testClock)
}

func TestEntryService_AddEntry_ActiveContest(t *testing.T) {
	// Arrange
	db := setupTestDB(t)
	svc := newTestEntryService(db)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, admin, entity.StatusActive, testNow.Add(-time.Hour), testNow.Add(time.Hour))

	// Act: anonymous self-service participation.
	entry, err := svc.AddEntry(contest.ID, "+77015551234", nil, "", nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.EntrySourceSelfService, entry.Source)
	assert.NotEmpty(t, entry.Code, "every entry gets a confirmation code")
	assert.Equal(t, "+77015551234", entry.Phone)
}

func TestEntryService_AddEntry_UpcomingSelfServiceRefused(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestEntryService(db)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, admin, entity.StatusUpcoming, testNow.Add(time.Hour), testNow.Add(2*time.Hour))

	_, err := svc.AddEntry(contest.ID, "+77015551234", nil, "", nil)

	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestEntryService_AddEntry_OperatorMayPreRegister(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestEntryService(db)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, admin, entity.StatusUpcoming, testNow.Add(time.Hour), testNow.Add(2*time.Hour))

	entry, err := svc.AddEntry(contest.ID, "+77015551234", nil, entity.EntrySourceOperator, admin)

	require.NoError(t, err)
	assert.Equal(t, entity.EntrySourceOperator, entry.Source)
}

func TestEntryService_AddEntry_OperatorSourceNeedsAdmin(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestEntryService(db)
	admin := seedUser(t, db, entity.RoleAdmin)
	sponsor := seedUser(t, db, entity.RoleSponsor)
	contest := seedContest(t, db, admin, entity.StatusActive, testNow.Add(-time.Hour), testNow.Add(time.Hour))

	_, err := svc.AddEntry(contest.ID, "+77015551234", nil, entity.EntrySourceOperator, sponsor)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.AddEntry(contest.ID, "+77015551234", nil, entity.EntrySourceOperator, nil)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestEntryService_AddEntry_EndedContestRefused(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestEntryService(db)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, admin, entity.StatusActive, testNow.Add(-2*time.Hour), testNow.Add(-time.Hour))

	_, err := svc.AddEntry(contest.ID, "+77015551234", nil, "", nil)

	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestEntryService_AddEntry_PhoneRequired(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestEntryService(db)

	_, err := svc.AddEntry(1, "", nil, "", nil)

	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestEntryService_ListAndCount(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestEntryService(db)
	admin := seedUser(t, db, entity.RoleAdmin)
	contest := seedContest(t, db, admin, entity.StatusActive, testNow.Add(-time.Hour), testNow.Add(time.Hour))
	seedEntries(t, db, contest.ID, 4)

	entries, err := svc.ListEntries(contest.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	count, err := svc.CountEntries(contest.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}
