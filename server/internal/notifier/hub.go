package notifier

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/mrosello/videograb/server/common"
	"github.com/mrosello/videograb/server/internal/jobstore"
)

// Buffered events per subscriber. A consumer that falls further behind
// loses intermediate ticks instead of blocking the publisher.
const subscriberBuffer = 16

// Hub fans job events out to every live subscriber of that job.
type Hub struct {
	store *jobstore.Store

	subscribers map[string]map[string]*Subscription
	mu          sync.RWMutex
}

func NewHub(store *jobstore.Store) *Hub {
	return &Hub{
		store:       store,
		subscribers: make(map[string]map[string]*Subscription),
	}
}

// Publish delivers an event to all current subscribers of the job, in
// publish order. One slow or dead sink never blocks the others.
func (h *Hub) Publish(jobID string, event common.Event) {
	h.mu.RLock()
	sinks := make([]*Subscription, 0, len(h.subscribers[jobID]))
	for _, s := range h.subscribers[jobID] {
		sinks = append(sinks, s)
	}
	h.mu.RUnlock()

	for _, s := range sinks {
		s.deliver(event)
	}
}

// Subscribe registers a new sink for a job's events. If the job already
// exists a snapshot of its current state is delivered immediately, so a
// reconnecting client catches up without waiting for the next transition.
func (h *Hub) Subscribe(jobID string) *Subscription {
	s := &Subscription{
		id:     uuid.NewString(),
		jobID:  jobID,
		hub:    h,
		events: make(chan common.Event, subscriberBuffer),
	}

	h.mu.Lock()
	if h.subscribers[jobID] == nil {
		h.subscribers[jobID] = make(map[string]*Subscription)
	}
	h.subscribers[jobID][s.id] = s
	h.mu.Unlock()

	slog.Info("subscriber attached",
		slog.String("job_id", jobID),
		slog.String("subscriber", s.id),
	)

	if job, err := h.store.Get(jobID); err == nil {
		s.deliver(snapshot(job))
	}

	return s
}

// remove drops a sink and, with it, the job's bookkeeping entry once the
// last subscriber is gone.
func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subscribers[s.jobID], s.id)
	if len(h.subscribers[s.jobID]) == 0 {
		delete(h.subscribers, s.jobID)
	}
}

// Subscribers reports how many sinks are attached to a job.
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[jobID])
}

func snapshot(job jobstore.Job) common.Event {
	event := common.Event{
		Status:   string(job.Status),
		Progress: job.Progress,
		Message:  fmt.Sprintf("Reconnected. Current status: %s", job.Status),
	}

	if job.Status == jobstore.StatusComplete {
		event.File = common.FileRef(job.Id)
	}

	return event
}

// Subscription is one live observer of a single job.
type Subscription struct {
	id    string
	jobID string
	hub   *Hub

	events chan common.Event
	mu     sync.Mutex
	closed bool
}

// Events yields the subscriber's event feed. The channel is closed by Close.
func (s *Subscription) Events() <-chan common.Event {
	return s.events
}

func (s *Subscription) deliver(event common.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.events <- event:
	default:
		// slow consumer, drop rather than stall the publisher
		slog.Warn("dropping event for slow subscriber",
			slog.String("job_id", s.jobID),
			slog.String("subscriber", s.id),
		)
	}
}

// Close detaches the subscription. Idempotent and safe to race with
// Publish: once it returns, no further event is delivered.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()

	s.hub.remove(s)

	slog.Info("subscriber detached",
		slog.String("job_id", s.jobID),
		slog.String("subscriber", s.id),
	)
}
