package performance

import "sync"

// WriteQueue serializes asynchronous writes per key. At most one write is in
// flight for a key and at most one is pending behind it; scheduling a new
// write while one is already pending replaces the pending one, so the newest
// snapshot always reaches storage last.
type WriteQueue struct {
	mutex sync.Mutex
	slots map[string]*writeSlot
	wg    sync.WaitGroup
}

type writeSlot struct {
	running bool
	pending func()
}

// NewWriteQueue creates an empty write queue.
func NewWriteQueue() *WriteQueue {
	return &WriteQueue{
		slots: make(map[string]*writeSlot),
	}
}

// Schedule queues fn for execution on the key's slot. The call returns
// immediately; fn runs on a background goroutine.
func (q *WriteQueue) Schedule(key string, fn func()) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	slot, exists := q.slots[key]
	if !exists {
		slot = &writeSlot{}
		q.slots[key] = slot
	}

	if slot.running {
		// Supersede whatever was waiting; only the newest snapshot matters.
		slot.pending = fn
		return
	}

	slot.running = true
	q.wg.Add(1)
	go q.drain(key, fn)
}

// drain runs fn, then keeps draining any pending write that arrived while it
// was busy, before releasing the slot.
func (q *WriteQueue) drain(key string, fn func()) {
	defer q.wg.Done()

	for fn != nil {
		fn()

		q.mutex.Lock()
		slot := q.slots[key]
		fn = slot.pending
		slot.pending = nil
		if fn == nil {
			slot.running = false
		}
		q.mutex.Unlock()
	}
}

// Flush blocks until every scheduled write has completed. Callers must stop
// scheduling before flushing.
func (q *WriteQueue) Flush() {
	q.wg.Wait()
}
