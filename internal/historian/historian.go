// internal/historian/historian.go
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xerekinha/pyramid/internal/cache"
	"github.com/xerekinha/pyramid/internal/database"
)

// Source yields queued action records. Pop returns (nil, nil) on timeout.
type Source interface {
	Pop(ctx context.Context, timeout time.Duration) (*cache.ActionRecord, error)
}

// Sink persists action records.
type Sink interface {
	InsertActions(ctx context.Context, recs []cache.ActionRecord) error
	MarkAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// Service drains the action queue into the sink in batches and closes games
// that went quiet.
type Service struct {
	src  Source
	sink Sink

	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration
	PopTimeout time.Duration
	Now        func() time.Time

	batch     []cache.ActionRecord
	lastFlush time.Time

	activityMu   sync.Mutex
	lastActivity map[uuid.UUID]time.Time

	log *logrus.Entry
}

// New builds a Service with the given batch size and flush delay.
func New(src Source, sink Sink, batchSize int, flushDelay, inactivity time.Duration, logger *logrus.Logger) *Service {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Service{
		src:          src,
		sink:         sink,
		BatchSize:    batchSize,
		FlushDelay:   flushDelay,
		Inactivity:   inactivity,
		PopTimeout:   time.Second,
		Now:          time.Now,
		lastActivity: make(map[uuid.UUID]time.Time),
		log:          logger.WithField("component", "historian"),
	}
}

// Run consumes the queue until ctx is done, then flushes what it holds.
func (s *Service) Run(ctx context.Context) {
	s.lastFlush = s.Now()
	go s.inactivityLoop(ctx)

	s.log.Info("historian started")
	for {
		select {
		case <-ctx.Done():
			s.flush(context.Background())
			s.log.Info("historian shutting down")
			return
		default:
		}

		rec, err := s.src.Pop(ctx, s.PopTimeout)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Errorf("pop: %v", err)
			}
		} else if rec != nil {
			s.track(*rec)
			s.batch = append(s.batch, *rec)
		}

		if len(s.batch) >= s.BatchSize || s.Now().Sub(s.lastFlush) >= s.FlushDelay {
			s.flush(ctx)
		}
	}
}

// flush writes the pending batch. A failed batch is logged and dropped.
func (s *Service) flush(ctx context.Context) {
	s.lastFlush = s.Now()
	if len(s.batch) == 0 {
		return
	}
	n := len(s.batch)
	err := s.sink.InsertActions(ctx, s.batch)
	s.batch = s.batch[:0]
	if err != nil {
		s.log.Errorf("flush %d actions: %v", n, err)
		return
	}
	s.log.Debugf("Flushed %d actions to DB.", n)
}

func (s *Service) track(rec cache.ActionRecord) {
	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	if rec.ActionType == database.EndActionType {
		delete(s.lastActivity, rec.GameID)
		return
	}
	s.lastActivity[rec.GameID] = s.Now()
}

func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepInactive(ctx, s.Now())
		}
	}
}

// SweepInactive marks every game idle for longer than Inactivity as
// abandoned and stops tracking it. It returns the number of games closed.
func (s *Service) SweepInactive(ctx context.Context, now time.Time) int {
	s.activityMu.Lock()
	var stale []uuid.UUID
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.Inactivity {
			stale = append(stale, id)
			delete(s.lastActivity, id)
		}
	}
	s.activityMu.Unlock()

	closed := 0
	for _, id := range stale {
		changed, err := s.sink.MarkAbandoned(ctx, id)
		if err != nil {
			s.log.Warn(err)
			continue
		}
		if changed {
			closed++
			s.log.Infof("Marked game %v as 'abandoned' due to inactivity.", id)
		}
	}
	return closed
}
