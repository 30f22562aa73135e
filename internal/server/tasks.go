package server

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mj1618/desktop-pilot/internal/agent"
)

// DefaultRecentRuns is how many runs stay queryable by default.
const DefaultRecentRuns = 64

// taskRegistry remembers recently started runs by ID, forgetting the
// oldest first.
type taskRegistry struct {
	mu    sync.Mutex
	tasks *lru.Cache[string, taskEntry]
}

type taskEntry struct {
	task *agent.Task
	// offset is the transcript length when the run started.
	offset int
}

func newTaskRegistry(size int) (*taskRegistry, error) {
	if size <= 0 {
		size = DefaultRecentRuns
	}
	c, err := lru.New[string, taskEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create run registry: %w", err)
	}
	return &taskRegistry{tasks: c}, nil
}

func (r *taskRegistry) add(t *agent.Task, offset int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks.Add(t.ID(), taskEntry{task: t, offset: offset})
}

// get returns the task with id. An empty id means the most recent run.
func (r *taskRegistry) get(id string) (taskEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		keys := r.tasks.Keys()
		if len(keys) == 0 {
			return taskEntry{}, false
		}
		// Keys are ordered oldest to newest.
		id = keys[len(keys)-1]
	}
	return r.tasks.Peek(id)
}

func (r *taskRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks.Len()
}
