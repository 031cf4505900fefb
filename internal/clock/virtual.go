package clock

import (
	"container/heap"
	"sync"
	"time"
)

// Virtual is a manually advanced scheduler for deterministic tests.
//
// Callbacks fire synchronously inside Advance, in due-time order; ties fire in
// scheduling order. A callback that schedules more work inside the advanced
// window sees that work fire during the same Advance call.
type Virtual struct {
	mu      sync.Mutex
	now     time.Time
	seq     int64
	pending timerHeap
}

// NewVirtual creates a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the current virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// After registers fn to run once the clock has advanced by d.
func (v *Virtual) After(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	t := &virtualTimer{
		owner: v,
		due:   v.now.Add(d),
		seq:   v.seq,
		fn:    fn,
		index: -1,
	}
	heap.Push(&v.pending, t)
	return t
}

// Advance moves the clock forward by d, firing every callback that becomes
// due. It returns the number of callbacks fired.
func (v *Virtual) Advance(d time.Duration) int {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()
	return v.advanceTo(target)
}

// RunUntilIdle fires pending callbacks until none remain or limit callbacks
// have fired. It guards tests against self-rescheduling loops.
func (v *Virtual) RunUntilIdle(limit int) int {
	fired := 0
	for fired < limit {
		v.mu.Lock()
		if v.pending.Len() == 0 {
			v.mu.Unlock()
			return fired
		}
		next := v.pending[0].due
		v.mu.Unlock()
		fired += v.advanceOne(next)
	}
	return fired
}

// Pending reports how many callbacks are waiting to fire.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending.Len()
}

func (v *Virtual) advanceTo(target time.Time) int {
	fired := 0
	for {
		n := v.advanceOne(target)
		if n == 0 {
			break
		}
		fired += n
	}
	v.mu.Lock()
	if target.After(v.now) {
		v.now = target
	}
	v.mu.Unlock()
	return fired
}

// advanceOne fires at most one callback due at or before target.
func (v *Virtual) advanceOne(target time.Time) int {
	v.mu.Lock()
	if v.pending.Len() == 0 || v.pending[0].due.After(target) {
		v.mu.Unlock()
		return 0
	}
	t := heap.Pop(&v.pending).(*virtualTimer)
	if t.due.After(v.now) {
		v.now = t.due
	}
	t.fired = true
	fn := t.fn
	v.mu.Unlock()

	fn()
	return 1
}

type virtualTimer struct {
	owner *Virtual
	due   time.Time
	seq   int64
	fn    func()
	index int
	fired bool
}

func (t *virtualTimer) Stop() bool {
	v := t.owner
	v.mu.Lock()
	defer v.mu.Unlock()
	if t.fired || t.index < 0 {
		return false
	}
	heap.Remove(&v.pending, t.index)
	return true
}

type timerHeap []*virtualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*virtualTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
