// Package tracking records per-request usage events without blocking the
// request that produced them.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"imtapp/internal/metrics"
	"imtapp/internal/model"
)

const (
	writeTimeout = 5 * time.Second

	// DefaultBufferSize is the number of events queued before new ones are dropped.
	DefaultBufferSize = 256
	batchSize         = 10
	flushInterval     = time.Second
)

// Sink persists usage events.
type Sink interface {
	SaveBatch(ctx context.Context, events []model.UsageEvent) error
}

// Collector records usage events.
type Collector interface {
	Record(event model.UsageEvent)
}

// Tracker queues events on a bounded channel drained by a single worker that
// writes them to a Sink in batches. A full queue drops the event. Failures are
// logged and counted, never returned.
type Tracker struct {
	sink    Sink
	metrics metrics.Recorder
	now     func() time.Time

	events chan model.UsageEvent
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

var _ Collector = (*Tracker)(nil)

// NewTracker creates a tracker over sink and starts its worker. bufferSize <= 0
// selects DefaultBufferSize.
func NewTracker(sink Sink, rec metrics.Recorder, bufferSize int) *Tracker {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	t := &Tracker{
		sink:    sink,
		metrics: rec,
		now:     time.Now,
		events:  make(chan model.UsageEvent, bufferSize),
		done:    make(chan struct{}),
	}
	go t.worker()
	return t
}

// Record queues event. A zero timestamp is set to now.
func (t *Tracker) Record(event model.UsageEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = t.now().UTC()
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.record("dropped", 1)
		return
	}
	select {
	case t.events <- event:
	default:
		log.Warn().Str("user_id", event.UserID).Str("request_url", event.RequestURL).Msg("usage queue full, dropping event")
		t.record("dropped", 1)
	}
}

// Close stops accepting events and blocks until the queued ones are written.
func (t *Tracker) Close() {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.events)
	}
	t.mu.Unlock()
	<-t.done
}

func (t *Tracker) worker() {
	defer close(t.done)

	batch := make([]model.UsageEvent, 0, batchSize)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-t.events:
			if !ok {
				t.flush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= batchSize {
				t.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				t.flush(batch)
				batch = batch[:0]
			}
		}
	}
}

func (t *Tracker) flush(batch []model.UsageEvent) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := t.sink.SaveBatch(ctx, batch); err != nil {
		log.Error().Err(err).Int("events", len(batch)).Msg("failed to record usage events")
		t.record("failed", len(batch))
		return
	}
	t.record("recorded", len(batch))
}

func (t *Tracker) record(outcome string, n int) {
	if t.metrics == nil {
		return
	}
	for i := 0; i < n; i++ {
		t.metrics.RecordUsageEvent(outcome)
	}
}
