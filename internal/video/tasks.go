package video

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task describes an in-flight transcode.
type Task struct {
	AssetID   uuid.UUID `json:"videoId"`
	StartedAt time.Time `json:"startedAt"`
	cancel    context.CancelFunc
}

// taskRegistry tracks running transcodes so they can be cancelled and
// drained on shutdown.
type taskRegistry struct {
	mu     sync.Mutex
	tasks  map[uuid.UUID]*Task
	wg     sync.WaitGroup
	closed bool
}

func newTaskRegistry() *taskRegistry {
	return &taskRegistry{tasks: map[uuid.UUID]*Task{}}
}

// start registers a task and must then be paired with finish. It refuses
// once the registry is closed.
func (r *taskRegistry) start(id uuid.UUID, cancel context.CancelFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.tasks[id] = &Task{AssetID: id, StartedAt: time.Now(), cancel: cancel}
	r.wg.Add(1)
	return true
}

func (r *taskRegistry) finish(id uuid.UUID) {
	r.mu.Lock()
	t, ok := r.tasks[id]
	delete(r.tasks, id)
	r.mu.Unlock()
	if ok {
		t.cancel()
		r.wg.Done()
	}
}

func (r *taskRegistry) cancel(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if ok {
		t.cancel()
	}
	return ok
}

func (r *taskRegistry) running(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[id]
	return ok
}

// close refuses new tasks and cancels the running ones.
func (r *taskRegistry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for _, t := range r.tasks {
		t.cancel()
	}
}

func (r *taskRegistry) list() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, Task{AssetID: t.AssetID, StartedAt: t.StartedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// wait blocks until every task has finished or ctx is done.
func (r *taskRegistry) wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
