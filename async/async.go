package async

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/hupe1980/clockcache"
	"github.com/hupe1980/clockcache/internal/spin"
)

// AllSlots selects every producer slot in Barrier.
const AllSlots = -1

// ErrClosed is returned by operations on a closed Cache.
var ErrClosed = errors.New("async cache closed")

type opKind uint8

const (
	opGet opKind = iota
	opSet
	opFlush
	opTerminate
)

type command[K clockcache.Key, V any] struct {
	kind  opKind
	key   K
	value V
	out   *V
}

// slot is one producer slot. pending, done and err are guarded by mu;
// active belongs to the consumer.
type slot[K clockcache.Key, V any] struct {
	mu      spin.PaddedMutex
	pending []command[K, V]
	err     error

	active []command[K, V]

	done spin.PaddedFlag
}

// Cache is an L1/L2 write-back cache owned by one consumer goroutine.
// All methods are safe for concurrent use.
type Cache[K clockcache.Key, V any] struct {
	slots []slot[K, V]
	mask  uint64
	next  atomic.Uint64

	l1 *clockcache.DirectMapped[K, V]
	l2 *clockcache.Clock[K, V]

	idlePasses int
	idleSleep  time.Duration
	logger     *clockcache.Logger

	closed  atomic.Bool
	stopped chan struct{}
	// termErr is written by the consumer before stopped is closed.
	termErr error
}

// New creates a Cache over backend and starts its consumer goroutine.
// Close must be called to stop the consumer and flush the cache.
func New[K clockcache.Key, V any](backend clockcache.Backend[K, V], opts ...Option) (*Cache[K, V], error) {
	o := options{
		producers:  DefaultProducers,
		l1Size:     DefaultL1Size,
		l2Size:     DefaultL2Size,
		idlePasses: DefaultIdlePasses,
		idleSleep:  DefaultIdleSleep,
		logger:     clockcache.NoopLogger(),
		metrics:    clockcache.NoopMetricsCollector{},
	}
	for _, fn := range opts {
		fn(&o)
	}

	if o.producers <= 0 || o.producers&(o.producers-1) != 0 {
		return nil, &clockcache.CapacityError{Param: "producer count", Value: o.producers, Want: "a power of two"}
	}

	levelOpts := []clockcache.Option{clockcache.WithLogger(o.logger), clockcache.WithMetrics(o.metrics)}
	l2, err := clockcache.NewClock(o.l2Size, backend, levelOpts...)
	if err != nil {
		return nil, err
	}
	l1, err := clockcache.NewDirectMapped[K, V](o.l1Size, l2, levelOpts...)
	if err != nil {
		return nil, err
	}

	c := &Cache[K, V]{
		slots:      make([]slot[K, V], o.producers),
		mask:       uint64(o.producers - 1),
		l1:         l1,
		l2:         l2,
		idlePasses: o.idlePasses,
		idleSleep:  o.idleSleep,
		logger:     o.logger,
		stopped:    make(chan struct{}),
	}

	go c.run()

	return c, nil
}

// NumProducers returns the number of producer slots.
func (c *Cache[K, V]) NumProducers() int { return len(c.slots) }

// allocate hands out slots round-robin.
func (c *Cache[K, V]) allocate() int {
	return int((c.next.Add(1) - 1) & c.mask)
}

func (c *Cache[K, V]) slotIndex(slot int) int {
	if slot < 0 {
		return c.allocate()
	}
	return int(uint64(slot) & c.mask)
}

// push appends cmd to slot i. It reports false if the cache is closed.
func (c *Cache[K, V]) push(i int, cmd command[K, V]) bool {
	s := &c.slots[i]
	s.mu.Lock()
	if c.closed.Load() {
		s.mu.Unlock()
		return false
	}
	s.pending = append(s.pending, cmd)
	s.mu.Unlock()
	return true
}

// GetAsync enqueues a read of key whose result is written to out.
// out must not be read until Barrier on the returned slot has returned.
//
// A negative slot picks the next slot round-robin; other values are masked
// to the producer count. It returns the slot used, or -1 if out is nil or
// the cache is closed.
func (c *Cache[K, V]) GetAsync(key K, out *V, slot int) int {
	if out == nil {
		return -1
	}
	i := c.slotIndex(slot)
	if !c.push(i, command[K, V]{kind: opGet, key: key, out: out}) {
		return -1
	}
	return i
}

// SetAsync enqueues a write of value under key. Slot selection is as for
// GetAsync. It returns the slot used, or -1 if the cache is closed.
func (c *Cache[K, V]) SetAsync(key K, value V, slot int) int {
	i := c.slotIndex(slot)
	if !c.push(i, command[K, V]{kind: opSet, key: key, value: value}) {
		return -1
	}
	return i
}

// Barrier blocks until every command enqueued on slot before the call has
// been applied. AllSlots waits for every slot in turn.
//
// It returns the errors raised while applying the slot's commands since the
// previous Barrier on that slot, and ErrClosed if the consumer stopped
// before the slot was drained.
func (c *Cache[K, V]) Barrier(slot int) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.barrier(slot)
}

func (c *Cache[K, V]) barrier(slot int) error {
	if slot == AllSlots {
		var errs []error
		for i := range c.slots {
			errs = append(errs, c.barrierSlot(i))
		}
		return errors.Join(errs...)
	}
	return c.barrierSlot(int(uint64(slot) & c.mask))
}

func (c *Cache[K, V]) barrierSlot(i int) error {
	s := &c.slots[i]

	s.mu.Lock()
	s.done.Clear()
	s.mu.Unlock()

	if !s.done.Wait(c.isStopped) {
		return ErrClosed
	}

	s.mu.Lock()
	err := s.err
	s.err = nil
	s.mu.Unlock()
	return err
}

func (c *Cache[K, V]) isStopped() bool {
	select {
	case <-c.stopped:
		return true
	default:
		return false
	}
}

// Flush enqueues a flush on every slot and waits for all of them, so every
// command enqueued before the call is applied and written back when Flush
// returns.
func (c *Cache[K, V]) Flush() error {
	for i := range c.slots {
		if !c.push(i, command[K, V]{kind: opFlush}) {
			return ErrClosed
		}
	}
	return c.Barrier(AllSlots)
}

// Close drains every slot, flushes both levels to the backend and stops the
// consumer. Async calls made after Close has started are rejected.
func (c *Cache[K, V]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	err := c.barrier(AllSlots)

	s := &c.slots[0]
	s.mu.Lock()
	s.pending = append(s.pending, command[K, V]{kind: opTerminate})
	s.mu.Unlock()

	<-c.stopped
	return errors.Join(err, c.termErr)
}

// Stats returns the counters of the L1 and L2 levels.
func (c *Cache[K, V]) Stats() clockcache.MultiLevelStats {
	return clockcache.MultiLevelStats{L1: c.l1.Stats(), L2: c.l2.Stats()}
}

// run is the consumer loop.
func (c *Cache[K, V]) run() {
	defer close(c.stopped)

	ctx := context.Background()
	idle := 0
	for {
		worked := false
		for i := range c.slots {
			n, terminate := c.drain(ctx, i)
			if terminate {
				c.release()
				return
			}
			if n > 0 {
				worked = true
			}
		}

		if worked {
			idle = 0
			continue
		}
		idle++
		if idle >= c.idlePasses {
			time.Sleep(c.idleSleep)
		}
	}
}

// drain swaps slot i's buffers, applies the batch and signals barriers. It
// returns the number of commands applied and whether Terminate was seen.
func (c *Cache[K, V]) drain(ctx context.Context, i int) (int, bool) {
	s := &c.slots[i]

	s.mu.Lock()
	s.active, s.pending = s.pending, s.active[:0]
	s.mu.Unlock()

	var (
		errs      []error
		terminate bool
		n         int
	)
	for _, cmd := range s.active {
		n++
		if err := c.apply(ctx, cmd); err != nil {
			errs = append(errs, err)
		}
		if cmd.kind == opTerminate {
			terminate = true
			c.termErr = errors.Join(c.flushLevels(ctx), c.termErr)
			break
		}
	}
	clear(s.active)
	s.active = s.active[:0]

	if len(errs) > 0 {
		c.logger.WithSlot(i).WarnContext(ctx, "async commands failed", "failed", len(errs), "error", errors.Join(errs...))
	}

	s.mu.Lock()
	if len(errs) > 0 {
		s.err = errors.Join(s.err, errors.Join(errs...))
	}
	if terminate || len(s.pending) == 0 {
		s.done.Set()
	}
	s.mu.Unlock()

	return n, terminate
}

func (c *Cache[K, V]) apply(ctx context.Context, cmd command[K, V]) error {
	switch cmd.kind {
	case opGet:
		v, err := c.l1.Get(ctx, cmd.key)
		if err != nil {
			return err
		}
		*cmd.out = v
	case opSet:
		return c.l1.Set(ctx, cmd.key, cmd.value)
	case opFlush:
		return c.flushLevels(ctx)
	}
	return nil
}

func (c *Cache[K, V]) flushLevels(ctx context.Context) error {
	err1 := c.l1.Flush(ctx)
	err2 := c.l2.Flush(ctx)
	return errors.Join(err1, err2)
}

// release raises the done flag of every drained slot before the consumer exits.
func (c *Cache[K, V]) release() {
	for i := range c.slots {
		s := &c.slots[i]
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.done.Set()
		}
		s.mu.Unlock()
	}
}
