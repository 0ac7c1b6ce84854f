package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-case-api/databases"
)

// Job names, also used as lock names
const (
	JobExpireStalePayments = "expire_stale_payments"
	JobHighAlertDigest     = "high_alert_digest"
)

// StalePaymentAge is how long a payment may stay pending before it is expired
const StalePaymentAge = 24 * time.Hour

// Jobs is the part of the workflow engine the scheduler drives
type Jobs interface {
	ExpireStalePayments(ctx context.Context, olderThan time.Duration) (int, error)
	PublishHighAlertDigest(ctx context.Context) (int, error)
}

type job struct {
	spec    string
	lockTTL time.Duration
	run     func(ctx context.Context) (int, error)
}

// Scheduler runs the periodic maintenance jobs. Each run takes a distributed
// lock so only one instance does the work.
type Scheduler struct {
	cron       *cron.Cron
	LockDB     databases.LockDatabase
	jobs       map[string]job
	instanceID string
}

// NewScheduler creates a new scheduler instance
func NewScheduler(engine Jobs, lockDB databases.LockDatabase) *Scheduler {
	// Heroku sets DYNO to "web.1", "web.2", etc.
	instanceID := os.Getenv("DYNO")
	if instanceID == "" {
		instanceID = "instance-" + uuid.New().String()
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		LockDB: lockDB,
		jobs: map[string]job{
			JobExpireStalePayments: {
				spec:    "*/15 * * * *",
				lockTTL: 10 * time.Minute,
				run: func(ctx context.Context) (int, error) {
					return engine.ExpireStalePayments(ctx, StalePaymentAge)
				},
			},
			JobHighAlertDigest: {
				spec:    "0 6 * * *",
				lockTTL: 10 * time.Minute,
				run:     engine.PublishHighAlertDigest,
			},
		},
		instanceID: instanceID,
	}
}

// Names lists the registered jobs
func (s *Scheduler) Names() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() error {
	for _, name := range s.Names() {
		name := name
		j := s.jobs[name]
		_, err := s.cron.AddFunc(j.spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if _, _, err := s.RunJob(ctx, name); err != nil {
				zap.S().Errorw("scheduled job failed", "job", name, "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to register %s job: %w", name, err)
		}
	}
	s.cron.Start()
	zap.S().Infow("scheduler started", "instance", s.instanceID)
	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// ErrUnknownJob is returned by RunJob for a name that is not registered
var ErrUnknownJob = errors.New("unknown job")

// RunJob runs the named job now if no other instance holds its lock. ran is
// false when the lock was busy.
func (s *Scheduler) RunJob(ctx context.Context, name string) (ran bool, affected int, err error) {
	j, ok := s.jobs[name]
	if !ok {
		return false, 0, fmt.Errorf("%w %q", ErrUnknownJob, name)
	}

	acquired, err := s.LockDB.TryAcquireLock(ctx, name, s.instanceID, j.lockTTL)
	if err != nil {
		return false, 0, fmt.Errorf("failed to acquire lock for %s: %w", name, err)
	}
	if !acquired {
		zap.S().Debugw("job already running on another instance, skipping", "job", name)
		return false, 0, nil
	}
	defer func() {
		// the run context may already be done
		if err := s.LockDB.ReleaseLock(context.Background(), name, s.instanceID); err != nil {
			zap.S().Warnw("failed to release job lock", "job", name, "error", err)
		}
	}()

	start := time.Now()
	affected, err = j.run(ctx)
	if err != nil {
		return true, affected, err
	}
	zap.S().Infow("job finished", "job", name, "instance", s.instanceID, "affected", affected, "duration", time.Since(start))
	return true, affected, nil
}
