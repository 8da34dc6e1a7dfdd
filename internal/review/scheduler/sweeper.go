package scheduler

import (
	"log"
	"time"

	reviewusecase "jobtrail-backend/internal/review/usecase"
)

// ExpirySweeper periodically purges expired review items. It runs once
// shortly after process start, then on a fixed interval.
type ExpirySweeper struct {
	reviewUsecase *reviewusecase.ReviewUsecase
	interval      time.Duration
	stopChan      chan struct{}
}

// NewExpirySweeper creates a new sweeper
func NewExpirySweeper(reviewUsecase *reviewusecase.ReviewUsecase, interval time.Duration) *ExpirySweeper {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &ExpirySweeper{
		reviewUsecase: reviewUsecase,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the sweep loop
func (s *ExpirySweeper) Start() {
	log.Printf("[ReviewSweeper] Starting expiry sweeper (interval: %s)", s.interval)

	go func() {
		// Run immediately on start
		s.sweep()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				log.Println("[ReviewSweeper] Sweeper stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the sweeper
func (s *ExpirySweeper) Stop() {
	close(s.stopChan)
}

func (s *ExpirySweeper) sweep() {
	if _, err := s.reviewUsecase.SweepExpired(); err != nil {
		log.Printf("[ReviewSweeper] Sweep failed: %v", err)
	}
}
