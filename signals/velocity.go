package signals

import (
	"sync"
	"time"

	"github.com/keilerkonzept/topk/sliding"
)

// VelocityTracker is a time-driven sliding-window frequency sketch: each
// bucket covers bucketSize of wall-clock time and the window holds
// numBuckets of them, giving an approximate count of how many times a key
// (ephemeral id, IP, JA4) was seen in the trailing window. Grounded on the
// teacher's topk.TopKSketch, adapted from its request-count-driven ticking
// to wall-clock ticking since the signal collectors need "count in the
// last N minutes", not "count in the last N requests".
type VelocityTracker struct {
	mu     sync.Mutex
	sketch *sliding.Sketch
	stop   chan struct{}
}

// NewVelocityTracker starts a tracker whose window spans
// bucketSize*numBuckets of wall-clock time.
func NewVelocityTracker(numBuckets int, bucketSize time.Duration, width, depth int) *VelocityTracker {
	vt := &VelocityTracker{
		sketch: sliding.New(1, numBuckets, sliding.WithWidth(width), sliding.WithDepth(depth)),
		stop:   make(chan struct{}),
	}
	go vt.tickLoop(bucketSize)
	return vt
}

func (vt *VelocityTracker) tickLoop(bucketSize time.Duration) {
	ticker := time.NewTicker(bucketSize)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			vt.mu.Lock()
			vt.sketch.Tick()
			vt.mu.Unlock()
		case <-vt.stop:
			return
		}
	}
}

// Observe records one occurrence of key and returns its approximate count
// within the current window, including this occurrence.
func (vt *VelocityTracker) Observe(key string) uint32 {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	vt.sketch.Incr(key)
	return vt.sketch.Count(key)
}

// Count returns the approximate count for key without recording a new
// occurrence.
func (vt *VelocityTracker) Count(key string) uint32 {
	vt.mu.Lock()
	defer vt.mu.Unlock()
	return vt.sketch.Count(key)
}

// Close stops the tracker's background ticking goroutine.
func (vt *VelocityTracker) Close() {
	close(vt.stop)
}
