package sink

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
)

// Runner feeds every sink from its own subscription. A sink that falls
// behind is evicted by the hub like any other subscriber; the runner then
// subscribes it again, starting from a fresh snapshot.
type Runner struct {
	logger *zap.Logger
	source Source
	sinks  []Sink
}

func NewRunner(logger *zap.Logger, source Source, sinks ...Sink) *Runner {
	return &Runner{logger: logger, source: source, sinks: sinks}
}

// Run blocks until ctx is done and every sink has been closed.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, s := range r.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			r.pump(ctx, s)
			if err := s.Close(); err != nil {
				r.logger.Error("Error closing sink", zap.String("sink", s.Name()), zap.Error(err))
			}
		}(s)
	}
	wg.Wait()
	r.logger.Info("Sinks stopped")
}

func (r *Runner) pump(ctx context.Context, s Sink) {
	for {
		sub := r.source.Subscribe()
		r.logger.Info("Sink attached", zap.String("sink", s.Name()), zap.Int64("id", sub.ID))

		if !r.drain(ctx, s, sub) {
			r.source.Unsubscribe(sub.ID)
			return
		}
		r.logger.Warn("Sink evicted, resubscribing", zap.String("sink", s.Name()))
	}
}

// drain returns false when ctx is done and true when the subscription was
// closed underneath it.
func (r *Runner) drain(ctx context.Context, s Sink, sub *hub.Subscription) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case evt, ok := <-sub.Events:
			if !ok {
				return ctx.Err() == nil
			}
			if err := s.Handle(ctx, evt); err != nil {
				r.logger.Error("Sink write failed", zap.String("sink", s.Name()), zap.String("event", evt.Name), zap.Error(err))
			}
		}
	}
}
