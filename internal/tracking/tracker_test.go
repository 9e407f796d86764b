package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imtapp/internal/metrics"
	"imtapp/internal/model"
)

type memorySink struct {
	mu      sync.Mutex
	events  []model.UsageEvent
	batches int
	err     error
}

func (s *memorySink) SaveBatch(_ context.Context, events []model.UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches++
	s.events = append(s.events, events...)
	return nil
}

// outcomeCounter counts usage outcomes and ignores everything else.
type outcomeCounter struct {
	metrics.Recorder
	mu       sync.Mutex
	outcomes map[string]int
}

func newOutcomeCounter() *outcomeCounter {
	return &outcomeCounter{
		Recorder: metrics.NewCollector(prometheus.NewRegistry()),
		outcomes: make(map[string]int),
	}
}

func (c *outcomeCounter) RecordUsageEvent(outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[outcome]++
}

func (c *outcomeCounter) count(outcome string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomes[outcome]
}

func TestTracker_RecordsEvents(t *testing.T) {
	sink := &memorySink{}
	rec := newOutcomeCounter()
	tracker := NewTracker(sink, rec, 0)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return fixed }

	tracker.Record(model.UsageEvent{UserID: "u1", Email: "a@example.com", RequestURL: "/v1/image/find"})
	tracker.Close()

	require.Len(t, sink.events, 1)
	assert.Equal(t, "u1", sink.events[0].UserID)
	assert.Equal(t, "/v1/image/find", sink.events[0].RequestURL)
	assert.Equal(t, fixed, sink.events[0].Timestamp)
	assert.Equal(t, 1, rec.count("recorded"))
}

func TestTracker_WritesInBatches(t *testing.T) {
	sink := &memorySink{}
	tracker := NewTracker(sink, nil, 64)

	for i := 0; i < 25; i++ {
		tracker.Record(model.UsageEvent{UserID: fmt.Sprintf("u%d", i)})
	}
	tracker.Close()

	require.Len(t, sink.events, 25)
	assert.GreaterOrEqual(t, sink.batches, 3)
	for i, event := range sink.events {
		assert.Equal(t, fmt.Sprintf("u%d", i), event.UserID)
	}
}

func TestTracker_SwallowsSinkFailures(t *testing.T) {
	sink := &memorySink{err: errors.New("mongo down")}
	rec := newOutcomeCounter()
	tracker := NewTracker(sink, rec, 0)

	assert.NotPanics(t, func() {
		tracker.Record(model.UsageEvent{UserID: "u1"})
		tracker.Close()
	})
	assert.Empty(t, sink.events)
	assert.Equal(t, 1, rec.count("failed"))
}

func TestTracker_DropsWhenQueueIsFull(t *testing.T) {
	sink := &memorySink{}
	rec := newOutcomeCounter()
	// Built without a running worker so the queue stays full.
	tracker := &Tracker{
		sink:    sink,
		metrics: rec,
		now:     time.Now,
		events:  make(chan model.UsageEvent, 1),
		done:    make(chan struct{}),
	}

	tracker.Record(model.UsageEvent{UserID: "kept"})
	tracker.Record(model.UsageEvent{UserID: "dropped"})
	assert.Equal(t, 1, rec.count("dropped"))

	go tracker.worker()
	tracker.Close()

	require.Len(t, sink.events, 1)
	assert.Equal(t, "kept", sink.events[0].UserID)
}

func TestTracker_RecordAfterCloseIsDropped(t *testing.T) {
	sink := &memorySink{}
	rec := newOutcomeCounter()
	tracker := NewTracker(sink, rec, 0)
	tracker.Close()

	assert.NotPanics(t, func() {
		tracker.Record(model.UsageEvent{UserID: "late"})
	})
	assert.Empty(t, sink.events)
	assert.Equal(t, 1, rec.count("dropped"))
	tracker.Close()
}
