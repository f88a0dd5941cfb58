package session

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSchedule is the cron spec used when none is configured.
const DefaultSweepSchedule = "@every 1m"

// Sweeper is implemented by stores that need periodic expiry.
type Sweeper interface {
	Sweep() int
}

// Janitor wraps robfig/cron and runs Sweep on a schedule.
type Janitor struct {
	cron    *cron.Cron
	sweeper Sweeper
	spec    string
	logger  *zap.Logger
}

func NewJanitor(sweeper Sweeper, spec string, logger *zap.Logger) *Janitor {
	if spec == "" {
		spec = DefaultSweepSchedule
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{
		cron:    cron.New(),
		sweeper: sweeper,
		spec:    spec,
		logger:  logger,
	}
}

// Start registers the sweep job and starts the scheduler.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.spec, j.run); err != nil {
		return fmt.Errorf("schedule session sweep %q: %w", j.spec, err)
	}

	j.cron.Start()
	j.logger.Info("session janitor started", zap.String("schedule", j.spec))

	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("session janitor stopped")
}

func (j *Janitor) run() {
	removed := j.sweeper.Sweep()
	if removed > 0 {
		j.logger.Debug("expired sessions removed", zap.Int("removed", removed))
	}
}
