package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"devona/internal/model"
)

// Runnable is a feed driver the scheduler can tick.
type Runnable interface {
	Kind() model.FeedKind
	Process(ctx context.Context)
}

type entry struct {
	feed     Runnable
	interval time.Duration
}

// Scheduler runs each registered feed on its own timer loop. Loops are
// independent: a stalled cycle in one feed never blocks the others.
type Scheduler struct {
	entries []entry
	log     *slog.Logger
}

// NewScheduler creates an empty scheduler.
func NewScheduler(log *slog.Logger) *Scheduler {
	return &Scheduler{log: log}
}

// Add registers a feed to be processed at the given interval.
func (s *Scheduler) Add(f Runnable, interval time.Duration) {
	s.entries = append(s.entries, entry{feed: f, interval: interval})
}

// Run starts one loop per feed and blocks until ctx is cancelled and
// all in-flight cycles have returned.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, e := range s.entries {
		wg.Add(1)
		go func(e entry) {
			defer wg.Done()
			s.loop(ctx, e)
		}(e)
	}
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e entry) {
	s.log.Info("feed loop started", "feed", e.feed.Kind(), "interval", e.interval)

	e.feed.Process(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("feed loop stopped", "feed", e.feed.Kind())
			return
		case <-ticker.C:
			e.feed.Process(ctx)
		}
	}
}
