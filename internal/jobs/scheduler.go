package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/cgtsim/cgtsim/internal/config"
	"github.com/cgtsim/cgtsim/internal/utils"
	"github.com/cgtsim/cgtsim/pkg/advance"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler runs the recurring background work, currently only the daily
// interest accrual on active advances.
type Scheduler struct {
	cron           *cron.Cron
	advanceService advance.Service
	clock          utils.Clock
}

func NewScheduler(advanceService advance.Service, clock utils.Clock) *Scheduler {
	c := cron.New(cron.WithLocation(time.UTC))
	return &Scheduler{cron: c, advanceService: advanceService, clock: clock}
}

// Register wires the configured schedules. Must be called before Start.
func (s *Scheduler) Register(cfg config.Advance) error {
	_, err := s.cron.AddFunc(cfg.AccrualSchedule, s.accrueInterest)
	if err != nil {
		return fmt.Errorf("invalid accrual schedule %q: %w", cfg.AccrualSchedule, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info("job scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("job scheduler stopped")
}

func (s *Scheduler) accrueInterest() {
	asOf := s.clock.Now()
	accrued, err := s.advanceService.AccrueInterest(context.Background(), asOf)
	if err != nil {
		log.Errorf("interest accrual run failed: %v", err)
		return
	}
	log.Infof("interest accrual run done, %d advance(s) accrued", accrued)
}
