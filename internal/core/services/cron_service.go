package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultAutoResumeSpec runs the reconciler once an hour
const DefaultAutoResumeSpec = "@every 1h"

// CronService schedules background jobs
type CronService struct {
	cron       *cron.Cron
	reconciler *MembershipReconciler
	spec       string
	timeout    time.Duration
}

// NewCronService creates a new cron service. An empty spec uses DefaultAutoResumeSpec.
func NewCronService(reconciler *MembershipReconciler, spec string, loc *time.Location) *CronService {
	if spec == "" {
		spec = DefaultAutoResumeSpec
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CronService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(
				cron.Recover(cron.DefaultLogger),
				cron.SkipIfStillRunning(cron.DefaultLogger),
			),
		),
		reconciler: reconciler,
		spec:       spec,
		timeout:    10 * time.Minute,
	}
}

// Start registers jobs and starts the scheduler
func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runReconciler); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🚀 CronService started [auto-resume: %s]", s.spec)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

func (s *CronService) runReconciler() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.reconciler.RunOnce(ctx); err != nil {
		log.Printf("❌ Scheduled reconcile failed: %v", err)
	}
}
