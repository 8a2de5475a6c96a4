package entitycache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/dmitrymomot/cachekeeper/pkg/cache"
	"github.com/dmitrymomot/cachekeeper/pkg/keylock"
	"github.com/dmitrymomot/cachekeeper/pkg/logger"
)

var (
	ErrWriteBackStarted    = errors.New("write-back already started")
	ErrWriteBackNotStarted = errors.New("write-back not started")
	ErrWriteBackStopped    = errors.New("write-back stopped")
)

// WriteBackStats is a snapshot of the write-back counters.
type WriteBackStats struct {
	Enqueued       uint64 `json:"enqueued"`
	Saved          uint64 `json:"saved"`
	SkippedDeleted uint64 `json:"skipped_deleted"`
	SkippedStale   uint64 `json:"skipped_stale"`
	Failed         uint64 `json:"failed"`
	Dropped        uint64 `json:"dropped"`
	Pending        int    `json:"pending"`
}

type evictionEvent struct {
	entity Entity
	reason cache.EvictReason
	seq    uint64
}

// keyState tracks keys with queued events. touched is the sequence number
// of the last Service write to the key.
type keyState struct {
	queued  int
	touched uint64
}

// partition is an unbounded FIFO consumed by one worker.
type partition struct {
	mu     sync.Mutex
	events []evictionEvent
	wake   chan struct{}
}

func (p *partition) push(ev evictionEvent) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *partition) pop() (evictionEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.events) == 0 {
		return evictionEvent{}, false
	}
	ev := p.events[0]
	p.events[0] = evictionEvent{}
	p.events = p.events[1:]
	return ev, true
}

func (p *partition) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// WriteBack persists entities the cache dropped on its own.
//
// Enqueue never blocks and never touches the store, so it can run as the
// cache eviction callback. The cache calls it before the evicted key can be
// seen missing, so a later write to the key always Touches a queued event. Workers pick events up in per-key FIFO order and
// persist them under the same key lock the Service uses. An event is skipped
// when the Service wrote the key after the event was queued, when the key was
// deleted, or when the store holds a newer copy. Workers hold only the
// evicted key's own lock across the store calls, so other keys are never
// delayed; RemoveAll waits for in-flight writes.
// Failures are logged and counted, never returned.
type WriteBack struct {
	store   Store
	locks   *keylock.Locker
	timeout time.Duration
	logger  *slog.Logger
	parts   []*partition

	seq     atomic.Uint64
	trackMu sync.Mutex
	tracked map[string]*keyState

	mu      sync.RWMutex // guards cancel and stopped; Enqueue holds it shared while pushing
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup

	enqueued       atomic.Uint64
	saved          atomic.Uint64
	skippedDeleted atomic.Uint64
	skippedStale   atomic.Uint64
	failed         atomic.Uint64
	dropped        atomic.Uint64
}

// NewWriteBack creates a write-back handler with the given number of workers.
// locks must be shared with the Service writing to the same store.
func NewWriteBack(store Store, locks *keylock.Locker, workers int, timeout time.Duration, log *slog.Logger) *WriteBack {
	if workers <= 0 {
		workers = 1
	}
	w := &WriteBack{
		store:   store,
		locks:   locks,
		timeout: timeout,
		logger:  logger.OrDiscard(log).With(logger.Component("writeback")),
		parts:   make([]*partition, workers),
		tracked: make(map[string]*keyState),
	}
	for i := range w.parts {
		w.parts[i] = &partition{wake: make(chan struct{}, 1)}
	}
	return w
}

// Enqueue schedules an evicted entity for persistence. Its signature
// matches the cache eviction callback.
func (w *WriteBack) Enqueue(key string, e Entity, reason cache.EvictReason) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		w.dropped.Add(1)
		w.logger.Warn("eviction after shutdown, not persisted",
			logger.Key(key),
			logger.Reason(reason.String()),
		)
		return
	}

	seq := w.seq.Add(1)

	w.trackMu.Lock()
	ks, ok := w.tracked[key]
	if !ok {
		ks = &keyState{}
		w.tracked[key] = ks
	}
	ks.queued++
	w.trackMu.Unlock()

	w.enqueued.Add(1)
	w.partitionFor(key).push(evictionEvent{entity: e, reason: reason, seq: seq})
}

// Touch marks every queued event for key as outdated. The Service calls it
// under the key lock after each store write, since the store then holds
// newer data than anything the cache evicted before.
func (w *WriteBack) Touch(key string) {
	w.trackMu.Lock()
	defer w.trackMu.Unlock()

	if ks, ok := w.tracked[key]; ok {
		ks.touched = w.seq.Add(1)
	}
}

// release forgets one queued event and reports whether a later write made it obsolete.
func (w *WriteBack) release(ev evictionEvent) (superseded bool) {
	w.trackMu.Lock()
	defer w.trackMu.Unlock()

	ks, ok := w.tracked[ev.entity.Key]
	if !ok {
		return false
	}
	superseded = ks.touched > ev.seq
	ks.queued--
	if ks.queued <= 0 {
		delete(w.tracked, ev.entity.Key)
	}
	return superseded
}

// Start launches one worker per partition. Events enqueued before Start
// are kept and processed once the workers run. Cancelling ctx does not stop
// the workers; Stop does.
func (w *WriteBack) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrWriteBackStopped
	}
	if w.cancel != nil {
		return ErrWriteBackStarted
	}

	// Workers outlive ctx until Stop so that nothing enqueued in between is lost.
	ctx, w.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for _, p := range w.parts {
		w.wg.Add(1)
		go w.work(ctx, p)
	}

	w.logger.Info("write-back started", logger.Count(len(w.parts)))
	return nil
}

// Stop stops accepting events, waits until every queued event has been
// processed and returns.
func (w *WriteBack) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWriteBackNotStarted
	}
	cancel := w.cancel
	w.cancel = nil
	w.stopped = true
	w.mu.Unlock()

	cancel()
	w.wg.Wait()

	st := w.Stats()
	w.logger.Info("write-back stopped",
		slog.Uint64("saved", st.Saved),
		slog.Uint64("failed", st.Failed),
	)
	return nil
}

// Run is Start and Stop bound to ctx, for use with errgroup.
func (w *WriteBack) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return w.Stop()
	}
}

// Stats returns the current counters.
func (w *WriteBack) Stats() WriteBackStats {
	pending := 0
	for _, p := range w.parts {
		pending += p.len()
	}
	return WriteBackStats{
		Enqueued:       w.enqueued.Load(),
		Saved:          w.saved.Load(),
		SkippedDeleted: w.skippedDeleted.Load(),
		SkippedStale:   w.skippedStale.Load(),
		Failed:         w.failed.Load(),
		Dropped:        w.dropped.Load(),
		Pending:        pending,
	}
}

func (w *WriteBack) partitionFor(key string) *partition {
	if len(w.parts) == 1 {
		return w.parts[0]
	}
	return w.parts[xxhash.Sum64String(key)%uint64(len(w.parts))]
}

func (w *WriteBack) work(ctx context.Context, p *partition) {
	defer w.wg.Done()

	for {
		if ev, ok := p.pop(); ok {
			w.persist(ctx, ev)
			continue
		}

		select {
		case <-p.wake:
		case <-ctx.Done():
			// Drain what is left; Enqueue no longer adds to the partition.
			for {
				ev, ok := p.pop()
				if !ok {
					return
				}
				w.persist(ctx, ev)
			}
		}
	}
}

func (w *WriteBack) persist(ctx context.Context, ev evictionEvent) {
	e := ev.entity

	unlock := w.locks.Lock(e.Key)
	defer unlock()

	if w.release(ev) {
		w.skippedStale.Add(1)
		w.logger.DebugContext(ctx, "write-back skipped, key rewritten since eviction", logger.Key(e.Key))
		return
	}

	// Stop must not abort queued writes; the store timeout still applies.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	stored, found, err := w.store.FindByKey(opCtx, e.Key)
	if err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "write-back lookup failed",
			logger.Key(e.Key),
			logger.Reason(ev.reason.String()),
			logger.Error(err),
		)
		return
	}

	if !found {
		w.skippedDeleted.Add(1)
		w.logger.DebugContext(ctx, "write-back skipped, entity deleted", logger.Key(e.Key))
		return
	}

	// Same millisecond with a different payload means another write landed in
	// between; the evicted copy cannot be the newer one.
	if stored.LastAccessed.After(e.LastAccessed) ||
		(stored.LastAccessed.Equal(e.LastAccessed) && stored.Payload != e.Payload) {
		w.skippedStale.Add(1)
		w.logger.DebugContext(ctx, "write-back skipped, store is newer", logger.Key(e.Key))
		return
	}

	if err := w.store.Save(opCtx, e); err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "write-back save failed",
			logger.Key(e.Key),
			logger.Reason(ev.reason.String()),
			logger.Error(err),
		)
		return
	}

	w.saved.Add(1)
	w.logger.DebugContext(ctx, "evicted entity persisted",
		logger.Key(e.Key),
		logger.Reason(ev.reason.String()),
	)
}
