package materializer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultWindow is the debounce window for coalescing sync triggers.
const DefaultWindow = 300 * time.Millisecond

// Syncer is the recompute target the scheduler drives. Satisfied by
// *Materializer; tests substitute a fake.
type Syncer interface {
	Sync(ctx context.Context, productID uint) error
	BumpGeneration(ctx context.Context)
}

// Scheduler coalesces sync triggers per product id. A bulk import or a
// multi-field edit produces many raw writes touching the same product;
// without coalescing the expensive recompute would run once per raw write.
//
// Triggers for the same id arriving inside one window collapse into exactly
// one Sync; different ids proceed independently and concurrently. After a
// burst of syncs settles, the cache generation is bumped once for the whole
// batch rather than once per product.
//
// The schedule map is process-local. In a multi-instance deployment each
// instance coalesces only its own triggers; cross-instance duplicates are
// harmless because Sync is idempotent.
type Scheduler struct {
	syncer Syncer
	logger *zap.Logger
	window time.Duration

	mu      sync.Mutex
	pending map[uint]*time.Timer
	bump    *time.Timer
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with the given debounce window.
// A non-positive window falls back to DefaultWindow.
func NewScheduler(syncer Syncer, logger *zap.Logger, window time.Duration) *Scheduler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scheduler{
		syncer:  syncer,
		logger:  logger,
		window:  window,
		pending: make(map[uint]*time.Timer),
	}
}

// Schedule requests a sync for the product. Calls for an id that already has
// a pending window are absorbed into it.
func (s *Scheduler) Schedule(productID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pending[productID]; ok {
		return
	}

	s.wg.Add(1)
	s.pending[productID] = time.AfterFunc(s.window, func() {
		s.fire(productID)
	})
}

// Flush runs every pending sync immediately and bumps the generation.
// Used by tests and by import paths that want the batch visible right away.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	var due []uint
	for id, t := range s.pending {
		if t.Stop() {
			// Timer had not fired yet, so its callback never runs.
			delete(s.pending, id)
			s.wg.Done()
			due = append(due, id)
		}
	}
	bumped := false
	if s.bump != nil && s.bump.Stop() {
		s.bump = nil
		s.wg.Done()
		bumped = true
	}
	s.mu.Unlock()

	for _, id := range due {
		s.run(id)
	}

	// Wait for callbacks that had already fired.
	s.wg.Wait()

	if len(due) > 0 || bumped {
		s.syncer.BumpGeneration(context.Background())
	}
}

func (s *Scheduler) fire(productID uint) {
	defer s.wg.Done()

	s.mu.Lock()
	delete(s.pending, productID)
	s.mu.Unlock()

	s.run(productID)
	s.scheduleBump()
}

// run executes one sync. Failures are logged and swallowed: the write path
// that triggered the sync must never see them, and the listing stays stale
// until the next trigger.
func (s *Scheduler) run(productID uint) {
	if err := s.syncer.Sync(context.Background(), productID); err != nil {
		s.logger.Warn("Listing sync failed",
			zap.Uint("product_id", productID), zap.Error(err))
	}
}

// scheduleBump arranges a single generation bump per settled batch.
func (s *Scheduler) scheduleBump() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bump != nil {
		return
	}

	s.wg.Add(1)
	s.bump = time.AfterFunc(s.window, func() {
		defer s.wg.Done()

		s.mu.Lock()
		s.bump = nil
		s.mu.Unlock()

		s.syncer.BumpGeneration(context.Background())
	})
}
