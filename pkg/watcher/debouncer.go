package watcher

import (
	"context"
	"sort"
	"time"

	"github.com/ritzau/assetd/pkg/logging"
)

// Debouncer batches rapid file system events so a bundler writing several
// files triggers one notification per source.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer. A batch is flushed after
// quietPeriod without new events, or maxWait after its first event.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	var (
		quiet       = stoppedTimer()
		deadline    = stoppedTimer()
		pending     bool
		accumulated = make(map[string]map[string]struct{}) // source -> set of paths
	)

	flush := func() {
		quiet.Stop()
		deadline.Stop()
		if !pending {
			return
		}

		sources := make([]string, 0, len(accumulated))
		for s := range accumulated {
			sources = append(sources, s)
		}
		sort.Strings(sources)

		for _, s := range sources {
			paths := make([]string, 0, len(accumulated[s]))
			for p := range accumulated[s] {
				paths = append(paths, p)
			}
			sort.Strings(paths)

			logging.Debug("flushing asset changes", "source", s, "count", len(paths))
			select {
			case d.output <- ChangeEvent{Source: s, Paths: paths, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}
		}

		accumulated = make(map[string]map[string]struct{})
		pending = false
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			set := accumulated[event.Source]
			if set == nil {
				set = make(map[string]struct{})
				accumulated[event.Source] = set
			}
			for _, p := range event.Paths {
				set[p] = struct{}{}
			}

			if !pending {
				pending = true
				deadline.Reset(d.maxWait)
			}
			quiet.Stop()
			quiet.Reset(d.quietPeriod)

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

func stoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	t.Stop()
	return t
}
