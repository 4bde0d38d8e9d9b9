// Package governor provides per-client admission control in front of
// the LLM pipeline: a windowed rate limit with a bounded FIFO overflow
// queue that drains serially with a fixed delay.
package governor

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when a client is over its rate limit and its
// overflow queue has no capacity left. It is retryable: the caller can
// try again once the window rolls over.
var ErrQueueFull = errors.New("rate limit exceeded and request queue is full")

// entry tracks one client's window state. Entries are process-local and
// lost on restart; this is best-effort abuse mitigation, not accounting.
type entry struct {
	count   int
	resetAt time.Time
}

// Ticket is the admission result for one request. Ready is closed when
// the request may proceed: immediately for admitted requests, after the
// queue drains to it for deferred ones.
type Ticket struct {
	ready  chan struct{}
	Queued bool
}

// Ready returns a channel closed once the request is admitted.
func (t *Ticket) Ready() <-chan struct{} { return t.ready }

// Governor is safe for concurrent use.
type Governor struct {
	mu         sync.Mutex
	max        int
	window     time.Duration
	queueLimit int
	drainDelay time.Duration

	entries  map[string]*entry
	queues   map[string][]*Ticket
	draining map[string]bool

	lastSweep time.Time
	now       func() time.Time
	logger    zerolog.Logger
}

// New creates a Governor admitting max requests per window per client,
// queueing up to queueLimit excess requests that drain one per
// drainDelay.
func New(max int, window time.Duration, queueLimit int, drainDelay time.Duration, logger zerolog.Logger) *Governor {
	return &Governor{
		max:        max,
		window:     window,
		queueLimit: queueLimit,
		drainDelay: drainDelay,
		entries:    make(map[string]*entry),
		queues:     make(map[string][]*Ticket),
		draining:   make(map[string]bool),
		now:        time.Now,
		logger:     logger.With().Str("component", "governor").Logger(),
	}
}

// Check decides a request's fate synchronously: admit, queue, or reject.
// Admitted and queued requests get a Ticket; rejected ones get
// ErrQueueFull. Within one client, queued requests are served strictly
// FIFO. There is no ordering or fairness guarantee across clients.
func (g *Governor) Check(clientID string) (*Ticket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweepLocked(now)

	e, ok := g.entries[clientID]
	if !ok || now.After(e.resetAt) {
		g.entries[clientID] = &entry{count: 1, resetAt: now.Add(g.window)}
		return admittedTicket(), nil
	}

	if e.count < g.max {
		e.count++
		return admittedTicket(), nil
	}

	queue := g.queues[clientID]
	if len(queue) >= g.queueLimit {
		g.logger.Warn().
			Str("client_id", clientID).
			Int("queue_len", len(queue)).
			Msg("request rejected, queue full")
		return nil, ErrQueueFull
	}

	ticket := &Ticket{ready: make(chan struct{}), Queued: true}
	g.queues[clientID] = append(queue, ticket)

	g.logger.Debug().
		Str("client_id", clientID).
		Int("queue_len", len(g.queues[clientID])).
		Msg("request queued")

	if !g.draining[clientID] {
		g.draining[clientID] = true
		go g.drain(clientID)
	}

	return ticket, nil
}

// drain releases one queued ticket per drainDelay until the client's
// queue is empty. One drain goroutine per client at a time.
func (g *Governor) drain(clientID string) {
	for {
		time.Sleep(g.drainDelay)

		g.mu.Lock()
		queue := g.queues[clientID]
		if len(queue) == 0 {
			g.draining[clientID] = false
			delete(g.queues, clientID)
			g.mu.Unlock()
			return
		}
		head := queue[0]
		g.queues[clientID] = queue[1:]
		g.mu.Unlock()

		close(head.ready)
	}
}

// QueueLength returns the client's current overflow queue length.
func (g *Governor) QueueLength(clientID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.queues[clientID])
}

// sweepLocked opportunistically drops expired window entries. Runs at
// most once per window.
func (g *Governor) sweepLocked(now time.Time) {
	if now.Sub(g.lastSweep) < g.window {
		return
	}
	g.lastSweep = now
	for id, e := range g.entries {
		if now.After(e.resetAt) && len(g.queues[id]) == 0 {
			delete(g.entries, id)
		}
	}
}

func admittedTicket() *Ticket {
	t := &Ticket{ready: make(chan struct{})}
	close(t.ready)
	return t
}
