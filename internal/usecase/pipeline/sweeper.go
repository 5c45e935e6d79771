package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/callpulse-hq/callpulse/internal/domain/entities"
	"github.com/callpulse-hq/callpulse/internal/domain/repositories"
)

// Sweeper periodically settles processing records whose transcription
// callback never arrived. Webhooks are the only completion signal, so a
// lost delivery would otherwise leave a record processing forever.
type Sweeper struct {
	repo       repositories.CallRepository
	staleAfter time.Duration
	interval   time.Duration
	logger     *zap.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// sweepBatchSize bounds how many processing records one pass examines
const sweepBatchSize = 200

// NewSweeper creates a sweeper. It does not start until Start is called.
func NewSweeper(repo repositories.CallRepository, staleAfter, interval time.Duration, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		repo:       repo,
		staleAfter: staleAfter,
		interval:   interval,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine
func (s *Sweeper) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("stale record sweeper started",
			zap.Duration("stale_after", s.staleAfter),
			zap.Duration("interval", s.interval),
		)

		for {
			select {
			case <-ticker.C:
				s.sweepOnce(context.Background())
			case <-s.stopCh:
				s.logger.Info("stale record sweeper stopped")
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the in-flight pass
func (s *Sweeper) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	records, err := s.repo.ListByStatus(ctx, entities.CallStatusProcessing, sweepBatchSize)
	if err != nil {
		s.logger.Error("sweep failed to list processing records", zap.Error(err))
		return
	}

	now := time.Now()
	for i := range records {
		record := &records[i]
		if !record.IsStale(s.staleAfter, now) {
			continue
		}

		// CAS keeps this safe against a callback landing mid-sweep: only
		// one of the two settles the record
		applied, err := s.repo.TransitionStatus(ctx, record.ID, entities.CallStatusProcessing, entities.CallStatusError, map[string]interface{}{
			"error":        "transcription callback timed out",
			"completed_at": now,
		})
		if err != nil {
			s.logger.Error("sweep failed to settle stale record",
				zap.String("call_id", record.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if applied {
			s.logger.Warn("stale record settled as error",
				zap.String("call_id", record.ID.String()),
				zap.Duration("waited", now.Sub(record.UpdatedAt)),
			)
		}
	}
}
