// Package timer provides the server-side time authority: a heap-based
// scheduler for one-shot tasks (grace removals, pacing delays, room
// retention) and a per-room countdown that owns the round clock.
package timer

import (
	"container/heap"
	"sync"
	"time"
)

type task struct {
	id      int64
	runAt   time.Time
	fn      func()
	index   int
	removed bool
}

type taskQueue []*task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].runAt.Before(q[j].runAt)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x interface{}) {
	t := x.(*task)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	t.index = -1
	*q = old[0 : n-1]
	return t
}

// Manager schedules one-shot callbacks. Callbacks run on their own
// goroutine so a slow callback never stalls the pump.
type Manager struct {
	queue  taskQueue
	tasks  map[int64]*task
	mutex  sync.Mutex
	nextID int64
	done   chan struct{}
	once   sync.Once
}

func NewManager() *Manager {
	m := &Manager{
		queue:  make(taskQueue, 0),
		tasks:  make(map[int64]*task),
		nextID: 1,
		done:   make(chan struct{}),
	}
	heap.Init(&m.queue)
	go m.pump()
	return m
}

// Schedule runs fn once after delay and returns a cancellable id.
func (m *Manager) Schedule(delay time.Duration, fn func()) int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	t := &task{
		id:    m.nextID,
		runAt: time.Now().Add(delay),
		fn:    fn,
	}
	m.nextID++
	heap.Push(&m.queue, t)
	m.tasks[t.id] = t
	return t.id
}

// Cancel drops a pending task. Unknown or already-fired ids are a no-op.
func (m *Manager) Cancel(id int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return
	}
	delete(m.tasks, id)
	t.removed = true
	if t.index >= 0 {
		heap.Remove(&m.queue, t.index)
	}
}

// Stop shuts down the pump goroutine. Pending tasks never fire.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.done) })
}

func (m *Manager) pump() {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mutex.Lock()
			now := time.Now()
			var due []*task
			for m.queue.Len() > 0 {
				t := m.queue[0]
				if t.runAt.After(now) {
					break
				}
				heap.Pop(&m.queue)
				delete(m.tasks, t.id)
				if !t.removed {
					due = append(due, t)
				}
			}
			m.mutex.Unlock()

			for _, t := range due {
				go t.fn()
			}
		}
	}
}
