package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	pgRepo "github.com/yourusername/sweeps-api/internal/repository/postgres"
)

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// lockCache is a minimal in-memory CacheRepository for leader-lock tests.
type lockCache struct {
	mu        sync.Mutex
	held      map[string]struct{}
	denySetNX bool
}

func newLockCache() *lockCache { return &lockCache{held: make(map[string]struct{})} }

func (c *lockCache) Set(key string, value interface{}, expiration time.Duration) error { return nil }
func (c *lockCache) Get(key string) (string, error)                                    { return "", nil }
func (c *lockCache) Delete(key string) error                                           { return nil }
func (c *lockCache) Increment(key string) (int64, error)                               { return 1, nil }
func (c *lockCache) SetJSON(key string, value interface{}, expiration time.Duration) error {
	return nil
}
func (c *lockCache) GetJSON(key string, dest interface{}) error { return nil }
func (c *lockCache) Exists(key string) (bool, error)            { return false, nil }

func (c *lockCache) SetNX(key string, value interface{}, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.denySetNX {
		return false, nil
	}
	if _, held := c.held[key]; held {
		return false, nil
	}
	c.held[key] = struct{}{}
	return true, nil
}

func setupSweeper(t *testing.T) (*Sweeper, *gorm.DB, *lockCache) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entity.Contest{},
		&entity.ContestWinner{},
		&entity.StatusAuditRecord{},
	))

	cache := newLockCache()
	sweeper := NewSweeper(DefaultConfig(), &Dependencies{
		ContestRepo: pgRepo.NewContestRepo(db),
		WinnerRepo:  pgRepo.NewWinnerRepo(db),
		AuditRepo:   pgRepo.NewAuditRepo(db),
		CacheRepo:   cache,
		DB:          db,
		Clock:       testClock,
	})
	return sweeper, db, cache
}

func seedSweepContest(t *testing.T, db *gorm.DB, status entity.Status, start, end time.Time) *entity.Contest {
	t.Helper()
	contest := &entity.Contest{
		Name:        fmt.Sprintf("Sweep target %d", time.Now().UnixNano()),
		StartTime:   start,
		EndTime:     end,
		Status:      status,
		WinnerCount: 1,
		CreatedBy:   1,
	}
	require.NoError(t, db.Create(contest).Error)
	return contest
}

func contestStatus(t *testing.T, db *gorm.DB, id uint) entity.Status {
	t.Helper()
	var contest entity.Contest
	require.NoError(t, db.First(&contest, id).Error)
	return contest.Status
}

func TestSweeper_SweepOnce_FlipsUpcomingToActive(t *testing.T) {
	// Arrange: the start passed but nobody touched the row.
	sweeper, db, _ := setupSweeper(t)
	contest := seedSweepContest(t, db, entity.StatusUpcoming, testNow.Add(-time.Hour), testNow.Add(time.Hour))

	// Act
	updated, failed, err := sweeper.SweepOnce(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Zero(t, failed)
	assert.Equal(t, entity.StatusActive, contestStatus(t, db, contest.ID))

	var records []entity.StatusAuditRecord
	require.NoError(t, db.Where("contest_id = ?", contest.ID).Find(&records).Error)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].ActorID, "automated transitions carry no actor")
	assert.Equal(t, "automatic time-based update", records[0].Reason)
	require.NotNil(t, records[0].OldStatus)
	assert.Equal(t, entity.StatusUpcoming, *records[0].OldStatus)
}

func TestSweeper_SweepOnce_FlipsActiveToEnded(t *testing.T) {
	sweeper, db, _ := setupSweeper(t)
	contest := seedSweepContest(t, db, entity.StatusActive, testNow.Add(-2*time.Hour), testNow.Add(-time.Hour))

	updated, _, err := sweeper.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, entity.StatusEnded, contestStatus(t, db, contest.ID))
}

func TestSweeper_SweepOnce_SkipsUpToDateContests(t *testing.T) {
	sweeper, db, _ := setupSweeper(t)
	contest := seedSweepContest(t, db, entity.StatusActive, testNow.Add(-time.Hour), testNow.Add(time.Hour))

	updated, failed, err := sweeper.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Zero(t, failed)
	assert.Equal(t, entity.StatusActive, contestStatus(t, db, contest.ID))

	var count int64
	require.NoError(t, db.Model(&entity.StatusAuditRecord{}).Count(&count).Error)
	assert.Zero(t, count, "an unchanged contest must not be audited")
}

func TestSweeper_SweepOnce_NeverCompletesWithoutWinners(t *testing.T) {
	// ended → complete belongs to winner selection, not the clock.
	sweeper, db, _ := setupSweeper(t)
	contest := seedSweepContest(t, db, entity.StatusEnded, testNow.Add(-2*time.Hour), testNow.Add(-time.Hour))

	updated, _, err := sweeper.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Equal(t, entity.StatusEnded, contestStatus(t, db, contest.ID))
}

func TestSweeper_SweepOnce_IgnoresWorkflowStates(t *testing.T) {
	// Drafts and contests under review are invisible to the sweep even when
	// their windows have passed.
	sweeper, db, _ := setupSweeper(t)
	draft := seedSweepContest(t, db, entity.StatusDraft, testNow.Add(-2*time.Hour), testNow.Add(-time.Hour))
	awaiting := seedSweepContest(t, db, entity.StatusAwaitingApproval, testNow.Add(-2*time.Hour), testNow.Add(-time.Hour))

	updated, _, err := sweeper.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Equal(t, entity.StatusDraft, contestStatus(t, db, draft.ID))
	assert.Equal(t, entity.StatusAwaitingApproval, contestStatus(t, db, awaiting.ID))
}

func TestSweeper_SweepOnce_HandlesMixedBatch(t *testing.T) {
	sweeper, db, _ := setupSweeper(t)
	toActive := seedSweepContest(t, db, entity.StatusUpcoming, testNow.Add(-time.Hour), testNow.Add(time.Hour))
	toEnded := seedSweepContest(t, db, entity.StatusActive, testNow.Add(-3*time.Hour), testNow.Add(-time.Hour))
	current := seedSweepContest(t, db, entity.StatusUpcoming, testNow.Add(time.Hour), testNow.Add(2*time.Hour))

	updated, failed, err := sweeper.SweepOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	assert.Zero(t, failed)
	assert.Equal(t, entity.StatusActive, contestStatus(t, db, toActive.ID))
	assert.Equal(t, entity.StatusEnded, contestStatus(t, db, toEnded.ID))
	assert.Equal(t, entity.StatusUpcoming, contestStatus(t, db, current.ID))
}

func TestSweeper_LeaderLock_SkipsCycleWhenHeld(t *testing.T) {
	// Another instance holds the lock: this one must not touch anything.
	sweeper, db, cache := setupSweeper(t)
	cache.denySetNX = true
	contest := seedSweepContest(t, db, entity.StatusUpcoming, testNow.Add(-time.Hour), testNow.Add(time.Hour))

	sweeper.sweepWithLock(context.Background())

	assert.Equal(t, entity.StatusUpcoming, contestStatus(t, db, contest.ID))
}
