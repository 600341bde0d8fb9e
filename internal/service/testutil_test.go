package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	pgRepo "github.com/yourusername/sweeps-api/internal/repository/postgres"
)

// testNow is the frozen clock used by every time-dependent test.
var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// setupTestDB opens an isolated in-memory database with the full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "opening the in-memory database must succeed")

	err = db.AutoMigrate(
		&entity.User{},
		&entity.Contest{},
		&entity.Entry{},
		&entity.ContestWinner{},
		&entity.StatusAuditRecord{},
		&entity.OfficialRule{},
		&entity.SmsTemplate{},
		&entity.NotificationLog{},
	)
	require.NoError(t, err, "migrating the test schema must succeed")
	return db
}

// testRepos bundles the real repositories wired to the test database.
type testRepos struct {
	contests *pgRepo.ContestRepo
	entries  *pgRepo.EntryRepo
	winners  *pgRepo.WinnerRepo
	audits   *pgRepo.AuditRepo
	rules    *pgRepo.OfficialRuleRepo
	sms      *pgRepo.SmsTemplateRepo
	notifs   *pgRepo.NotificationLogRepo
	users    *pgRepo.UserRepo
}

func newTestRepos(db *gorm.DB) *testRepos {
	return &testRepos{
		contests: pgRepo.NewContestRepo(db),
		entries:  pgRepo.NewEntryRepo(db),
		winners:  pgRepo.NewWinnerRepo(db),
		audits:   pgRepo.NewAuditRepo(db),
		rules:    pgRepo.NewOfficialRuleRepo(db),
		sms:      pgRepo.NewSmsTemplateRepo(db),
		notifs:   pgRepo.NewNotificationLogRepo(db),
		users:    pgRepo.NewUserRepo(db),
	}
}

// fakeCache is an in-memory CacheRepository. SetNX can be forced to deny or
// fail to exercise lock contention paths.
type fakeCache struct {
	mu        sync.Mutex
	data      map[string]struct{}
	denySetNX bool
	failSetNX bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]struct{})}
}

func (f *fakeCache) Set(key string, value interface{}, expiration time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = struct{}{}
	return nil
}

func (f *fakeCache) Get(key string) (string, error) { return "", nil }

func (f *fakeCache) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeCache) Increment(key string) (int64, error) { return 1, nil }

func (f *fakeCache) SetJSON(key string, value interface{}, expiration time.Duration) error {
	return nil
}

func (f *fakeCache) GetJSON(key string, dest interface{}) error { return nil }

func (f *fakeCache) Exists(key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeCache) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSetNX {
		return false, fmt.Errorf("cache unavailable")
	}
	if f.denySetNX {
		return false, nil
	}
	if _, held := f.data[key]; held {
		return false, nil
	}
	f.data[key] = struct{}{}
	return true, nil
}

// seedUser inserts a user with the given role.
func seedUser(t *testing.T, db *gorm.DB, role string) *entity.User {
	t.Helper()
	user := &entity.User{
		Username: fmt.Sprintf("%s-%d", role, time.Now().UnixNano()),
		Email:    fmt.Sprintf("%s-%d@example.com", role, time.Now().UnixNano()),
		Password: "test-password",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedContest inserts a contest owned by creator in the given status.
func seedContest(t *testing.T, db *gorm.DB, creator *entity.User, status entity.Status, start, end time.Time) *entity.Contest {
	t.Helper()
	contest := &entity.Contest{
		Name:        "Spring Giveaway",
		Prize:       "Gift card",
		StartTime:   start,
		EndTime:     end,
		Status:      status,
		WinnerCount: 1,
		CreatedBy:   creator.ID,
	}
	require.NoError(t, db.Create(contest).Error)
	return contest
}

// seedEntries inserts n entries with distinct phones into the contest.
func seedEntries(t *testing.T, db *gorm.DB, contestID uint, n int) []entity.Entry {
	t.Helper()
	entries := make([]entity.Entry, 0, n)
	for i := 0; i < n; i++ {
		entry := entity.Entry{
			ContestID: contestID,
			Phone:     fmt.Sprintf("+7701555%04d", i),
			Source:    entity.EntrySourceSelfService,
			Code:      fmt.Sprintf("code-%d", i),
		}
		require.NoError(t, db.Create(&entry).Error)
		entries = append(entries, entry)
	}
	return entries
}

// reloadContest fetches the persisted contest row.
func reloadContest(t *testing.T, db *gorm.DB, id uint) *entity.Contest {
	t.Helper()
	var contest entity.Contest
	require.NoError(t, db.First(&contest, id).Error)
	return &contest
}

// auditRecords fetches the contest's audit trail, oldest first.
func auditRecords(t *testing.T, db *gorm.DB, contestID uint) []entity.StatusAuditRecord {
	t.Helper()
	var records []entity.StatusAuditRecord
	require.NoError(t, db.Where("contest_id = ?", contestID).Order("id").Find(&records).Error)
	return records
}
