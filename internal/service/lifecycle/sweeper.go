package lifecycle

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
)

// Sweeper is the periodic temporal resolver: it re-applies the effective
// status to every published contest and persists changes with an automated
// audit record. It never contends with foreground mutations — writes are
// conditional on the status it just read, and a lost race is simply skipped
// until the next cycle.
type Sweeper struct {
	config *Config
	deps   *Dependencies
	now    func() time.Time
}

// NewSweeper creates a new status sweeper.
func NewSweeper(config *Config, deps *Dependencies) *Sweeper {
	now := deps.Clock
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		config: config,
		deps:   deps,
		now:    now,
	}
}

// Run sweeps once immediately, then on every tick until the context is done.
// Intended to be launched as a goroutine from main.
func (s *Sweeper) Run(ctx context.Context) {
	log.Printf("[Sweeper] Started, interval %v", s.config.SweepInterval)

	s.sweepWithLock(ctx)

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Sweeper] Stopped: %v", ctx.Err())
			return
		case <-ticker.C:
			s.sweepWithLock(ctx)
		}
	}
}

// sweepWithLock runs one sweep if this instance wins the leader lock.
// Multiple API instances share the schedule; only one does the work per tick.
func (s *Sweeper) sweepWithLock(ctx context.Context) {
	acquired, err := s.deps.CacheRepo.SetNX(s.config.LeaderLockKey, s.now().Unix(), s.config.LeaderLockTTL)
	if err != nil {
		log.Printf("[Sweeper] Leader lock error, sweeping anyway: %v", err)
	} else if !acquired {
		log.Printf("[Sweeper] Another instance holds the leader lock, skipping cycle")
		return
	}

	updated, failed, err := s.SweepOnce(ctx)
	if err != nil {
		log.Printf("[Sweeper] Sweep failed: %v", err)
		return
	}
	if updated > 0 || failed > 0 {
		log.Printf("[Sweeper] Sweep finished: %d updated, %d skipped", updated, failed)
	}
}

// SweepOnce resolves every published contest once and returns how many were
// updated and how many were skipped on error or lost race. Individual contest
// failures never abort the batch.
func (s *Sweeper) SweepOnce(ctx context.Context) (updated, failed int, err error) {
	contests, err := s.deps.ContestRepo.ListPublished()
	if err != nil {
		return 0, 0, err
	}

	now := s.now()
	for i := range contests {
		select {
		case <-ctx.Done():
			return updated, failed, ctx.Err()
		default:
		}

		contest := &contests[i]
		hasWinners, herr := s.deps.WinnerRepo.HasWinners(contest.ID)
		if herr != nil {
			log.Printf("[Sweeper] Contest #%d: winner check failed, skipping: %v", contest.ID, herr)
			failed++
			continue
		}

		target := entity.EffectiveStatus(contest.Status, contest.StartTime, contest.EndTime, hasWinners, now)
		if target == contest.Status {
			continue
		}
		// ended→complete belongs to winner selection, not the clock.
		if target == entity.StatusComplete && !hasWinners {
			continue
		}

		if werr := s.applySweepTransition(contest, target); werr != nil {
			if errors.Is(werr, repository.ErrStatusConflict) {
				// A foreground mutation moved the contest between our read and
				// write. Next cycle will pick it up.
				log.Printf("[Sweeper] Contest #%d changed concurrently, retrying next cycle", contest.ID)
			} else {
				log.Printf("[Sweeper] Contest #%d: update failed, skipping: %v", contest.ID, werr)
			}
			failed++
			continue
		}

		log.Printf("[Sweeper] Contest #%d: %s -> %s", contest.ID, contest.Status, target)
		updated++
	}

	return updated, failed, nil
}

// applySweepTransition writes the status flip and its audit record in one
// transaction. ActorID is nil: the clock did it, not a person.
func (s *Sweeper) applySweepTransition(contest *entity.Contest, target entity.Status) error {
	from := contest.Status
	return s.deps.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.deps.ContestRepo.UpdateStatusIfCurrent(tx, contest.ID, from, target); err != nil {
			return err
		}
		rec := &entity.StatusAuditRecord{
			ContestID: contest.ID,
			OldStatus: &from,
			NewStatus: target,
			ActorID:   nil,
			Reason:    "automatic time-based update",
		}
		return s.deps.AuditRepo.Record(tx, rec)
	})
}
