package cart

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/cricketxpert/checkout-service/internal/metrics"
	"github.com/google/uuid"
)

// Handler consumes cart change events on a dispatcher shard.
type Handler func(ctx context.Context, ev Event)

// Dispatcher fans cart changes out to a fixed set of shard workers. A customer always
// lands on the same shard, so their events are handled one at a time and in order.
// Each shard keeps at most one pending event per customer: a newer snapshot replaces
// the queued one, so the latest state is always the one handled last.
type Dispatcher struct {
	shards  []*shard
	handler Handler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type shard struct {
	mu       sync.Mutex
	pending  map[uuid.UUID]Event
	order    []uuid.UUID
	inFlight map[uuid.UUID]bool
	waiters  map[uuid.UUID][]chan struct{}
	wake     chan struct{}
}

func newShard() *shard {
	return &shard{
		pending:  make(map[uuid.UUID]Event),
		inFlight: make(map[uuid.UUID]bool),
		waiters:  make(map[uuid.UUID][]chan struct{}),
		wake:     make(chan struct{}, 1),
	}
}

func NewDispatcher(shards int, handler Handler, logger *slog.Logger) *Dispatcher {
	if shards <= 0 {
		shards = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dispatcher{
		shards:  make([]*shard, shards),
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := range d.shards {
		d.shards[i] = newShard()
		d.wg.Add(1)

		go d.run(d.shards[i])
	}

	return d
}

// CartChanged implements Notifier. The request context is not carried over because the
// handler outlives the request.
func (d *Dispatcher) CartChanged(_ context.Context, ev Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(ev, "dispatcher closed")
		return
	}

	s := d.shardFor(ev.CustomerID)

	s.mu.Lock()
	if _, queued := s.pending[ev.CustomerID]; queued {
		metrics.CartDispatchCoalesced.Inc()
	} else {
		s.order = append(s.order, ev.CustomerID)
	}
	s.pending[ev.CustomerID] = ev
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Flush blocks until no event for customerID is queued or being handled, or ctx expires.
func (d *Dispatcher) Flush(ctx context.Context, customerID uuid.UUID) error {
	s := d.shardFor(customerID)

	s.mu.Lock()
	_, queued := s.pending[customerID]
	if !queued && !s.inFlight[customerID] {
		s.mu.Unlock()
		return nil
	}

	idle := make(chan struct{})
	s.waiters[customerID] = append(s.waiters[customerID], idle)
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events and waits until queued ones are handled. When ctx expires
// first, the context handed to running handlers is cancelled.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for _, s := range d.shards {
			close(s.wake)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return ctx.Err()
	}
}

func (d *Dispatcher) run(s *shard) {
	defer d.wg.Done()

	for {
		for {
			ev, ok := s.next()
			if !ok {
				break
			}

			d.handle(ev)
			s.finish(ev.CustomerID)
		}

		if _, open := <-s.wake; !open {
			break
		}
	}

	// Drain whatever was queued before Close.
	for ev, ok := s.next(); ok; ev, ok = s.next() {
		d.handle(ev)
		s.finish(ev.CustomerID)
	}
}

func (s *shard) next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return Event{}, false
	}

	customerID := s.order[0]
	s.order = s.order[1:]
	if len(s.order) == 0 {
		s.order = nil
	}

	ev := s.pending[customerID]
	delete(s.pending, customerID)
	s.inFlight[customerID] = true

	return ev, true
}

// finish wakes Flush callers once the customer has nothing queued behind the handled event.
func (s *shard) finish(customerID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, customerID)

	if _, queued := s.pending[customerID]; queued {
		return
	}

	for _, idle := range s.waiters[customerID] {
		close(idle)
	}
	delete(s.waiters, customerID)
}

func (d *Dispatcher) handle(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Cart change handler panicked",
				slog.String("customerId", ev.CustomerID.String()),
				slog.Any("panic", r))
		}
	}()

	d.handler(d.ctx, ev)
}

func (d *Dispatcher) shardFor(customerID uuid.UUID) *shard {
	h := fnv.New32a()
	_, _ = h.Write(customerID[:])

	return d.shards[h.Sum32()%uint32(len(d.shards))]
}

func (d *Dispatcher) drop(ev Event, reason string) {
	metrics.CartDispatchDropped.Inc()

	d.logger.Warn("Dropped cart change event",
		slog.String("customerId", ev.CustomerID.String()),
		slog.String("reason", reason),
		slog.Int("lines", len(ev.Lines)))
}
