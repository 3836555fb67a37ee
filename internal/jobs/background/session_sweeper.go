package background

import (
	"context"
	"log"
	"time"

	"reqgather/internal/repositories"

	"github.com/go-co-op/gocron/v2"
)

const sessionRetention = 30 * 24 * time.Hour

// SessionSweeper periodically deactivates expired sessions and purges rows
// past the retention window.
type SessionSweeper struct {
	scheduler   gocron.Scheduler
	sessionRepo repositories.SessionRepository
}

func NewSessionSweeper(sessionRepo repositories.SessionRepository) (*SessionSweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	s := &SessionSweeper{
		scheduler:   scheduler,
		sessionRepo: sessionRepo,
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(s.sweep, context.Background()),
		gocron.WithName("session-sweep"),
	)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *SessionSweeper) Start() {
	log.Printf("Starting session sweeper")
	s.scheduler.Start()
}

func (s *SessionSweeper) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	deactivated, err := s.sessionRepo.DeactivateExpired(ctx)
	if err != nil {
		log.Printf("session sweep: deactivate failed: %v", err)
		return
	}
	purged, err := s.sessionRepo.DeleteExpiredBefore(ctx, time.Now().Add(-sessionRetention))
	if err != nil {
		log.Printf("session sweep: purge failed: %v", err)
		return
	}
	if deactivated > 0 || purged > 0 {
		log.Printf("session sweep: deactivated %d, purged %d", deactivated, purged)
	}
}
