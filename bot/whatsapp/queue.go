package whatsapp

import "sync"

// serialQueue runs tasks with the same key one after another, in order,
// while different keys run concurrently.
type serialQueue struct {
	mu    sync.Mutex
	lanes map[string][]func()
	wg    sync.WaitGroup
}

func newSerialQueue() *serialQueue {
	return &serialQueue{lanes: make(map[string][]func())}
}

func (q *serialQueue) Do(key string, fn func()) {
	q.mu.Lock()
	pending, running := q.lanes[key]
	q.lanes[key] = append(pending, fn)
	q.mu.Unlock()

	if !running {
		q.wg.Add(1)
		go q.drain(key)
	}
}

func (q *serialQueue) drain(key string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		tasks := q.lanes[key]
		if len(tasks) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		fn := tasks[0]
		q.lanes[key] = tasks[1:]
		q.mu.Unlock()

		fn()
	}
}

// Wait blocks until every queued task has run.
func (q *serialQueue) Wait() {
	q.wg.Wait()
}
