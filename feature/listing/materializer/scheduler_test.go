package materializer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeSyncer counts sync and bump calls per product.
type fakeSyncer struct {
	mu     sync.Mutex
	syncs  map[uint]int
	bumps  int
	err    error
}

func newFakeSyncer() *fakeSyncer {
	return &fakeSyncer{syncs: map[uint]int{}}
}

func (f *fakeSyncer) Sync(_ context.Context, productID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs[productID]++
	return f.err
}

func (f *fakeSyncer) BumpGeneration(_ context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bumps++
}

func (f *fakeSyncer) counts() (map[uint]int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uint]int, len(f.syncs))
	for k, v := range f.syncs {
		out[k] = v
	}
	return out, f.bumps
}

func TestScheduler_CoalescesSameID(t *testing.T) {
	syncer := newFakeSyncer()
	s := NewScheduler(syncer, zap.NewNop(), 20*time.Millisecond)

	for i := 0; i < 10; i++ {
		s.Schedule(42)
	}

	time.Sleep(100 * time.Millisecond)

	syncs, bumps := syncer.counts()
	assert.Equal(t, 1, syncs[42])
	assert.Equal(t, 1, bumps)
}

func TestScheduler_IndependentIDs(t *testing.T) {
	syncer := newFakeSyncer()
	s := NewScheduler(syncer, zap.NewNop(), 20*time.Millisecond)

	s.Schedule(1)
	s.Schedule(2)
	s.Schedule(1)
	s.Schedule(3)

	time.Sleep(100 * time.Millisecond)

	syncs, bumps := syncer.counts()
	assert.Equal(t, 1, syncs[1])
	assert.Equal(t, 1, syncs[2])
	assert.Equal(t, 1, syncs[3])
	// One generation bump for the whole batch, not one per product.
	assert.Equal(t, 1, bumps)
}

func TestScheduler_NewBatchBumpsAgain(t *testing.T) {
	syncer := newFakeSyncer()
	s := NewScheduler(syncer, zap.NewNop(), 10*time.Millisecond)

	s.Schedule(1)
	time.Sleep(50 * time.Millisecond)
	s.Schedule(1)
	time.Sleep(50 * time.Millisecond)

	syncs, bumps := syncer.counts()
	assert.Equal(t, 2, syncs[1])
	assert.Equal(t, 2, bumps)
}

func TestScheduler_Flush(t *testing.T) {
	syncer := newFakeSyncer()
	// Long window: nothing would fire without Flush.
	s := NewScheduler(syncer, zap.NewNop(), time.Minute)

	s.Schedule(7)
	s.Schedule(8)
	s.Flush()

	syncs, bumps := syncer.counts()
	assert.Equal(t, 1, syncs[7])
	assert.Equal(t, 1, syncs[8])
	assert.Equal(t, 1, bumps)
}

func TestScheduler_SwallowsSyncErrors(t *testing.T) {
	syncer := newFakeSyncer()
	syncer.err = errors.New("transient store error")
	s := NewScheduler(syncer, zap.NewNop(), time.Minute)

	s.Schedule(9)
	// Must not panic or propagate; the batch still bumps.
	s.Flush()

	syncs, bumps := syncer.counts()
	assert.Equal(t, 1, syncs[9])
	assert.Equal(t, 1, bumps)
}
