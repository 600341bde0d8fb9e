package lifecycle

import (
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/repository"
)

// Default sweep settings.
const (
	DefaultSweepIntervalMinutes = 15
	DefaultLeaderLockKey        = "lifecycle:sweep:leader"
)

// Config holds the settings of the periodic status sweep.
type Config struct {
	// SweepInterval is how often the sweep re-resolves every published
	// contest's status against the clock.
	SweepInterval time.Duration

	// LeaderLockKey and LeaderLockTTL configure the redis lock that keeps
	// only one instance sweeping at a time.
	LeaderLockKey string
	LeaderLockTTL time.Duration
}

// DefaultConfig returns the default sweep configuration.
func DefaultConfig() *Config {
	interval := DefaultSweepIntervalMinutes * time.Minute
	return &Config{
		SweepInterval: interval,
		LeaderLockKey: DefaultLeaderLockKey,
		// The lock expires before the next tick so a crashed leader cannot
		// stall the sweep for more than one cycle.
		LeaderLockTTL: interval - time.Minute,
	}
}

// Dependencies holds what the sweeper needs from the rest of the system.
type Dependencies struct {
	ContestRepo repository.ContestRepository
	WinnerRepo  repository.WinnerRepository
	AuditRepo   repository.AuditRepository
	CacheRepo   repository.CacheRepository
	DB          *gorm.DB

	// Clock is injected so tests control time. Nil means time.Now.
	Clock func() time.Time
}
