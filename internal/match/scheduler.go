package match

import (
	"strings"
	"sync"
	"time"
)

const (
	taskRetention = "retention"
	taskGrace     = "grace/"
)

type taskKey struct {
	sessionID string
	name      string
}

type scheduledTask struct {
	timer *time.Timer
}

// Scheduler runs deferred actions keyed by session. Scheduling a key that is
// already pending replaces it; a cancelled or replaced task never runs even
// if its timer had already fired.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[taskKey]*scheduledTask
	stopped bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{tasks: map[taskKey]*scheduledTask{}}
}

func (s *Scheduler) Schedule(sessionID, name string, delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}
	key := taskKey{sessionID: sessionID, name: name}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if prev := s.tasks[key]; prev != nil {
		prev.timer.Stop()
	}
	task := &scheduledTask{}
	task.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.tasks[key] != task {
			s.mu.Unlock()
			return
		}
		delete(s.tasks, key)
		s.mu.Unlock()
		fn()
	})
	s.tasks[key] = task
}

func (s *Scheduler) Cancel(sessionID, name string) bool {
	key := taskKey{sessionID: sessionID, name: name}
	s.mu.Lock()
	defer s.mu.Unlock()
	task := s.tasks[key]
	if task == nil {
		return false
	}
	task.timer.Stop()
	delete(s.tasks, key)
	return true
}

// CancelSession drops every pending task for sessionID.
func (s *Scheduler) CancelSession(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, task := range s.tasks {
		if key.sessionID == sessionID {
			task.timer.Stop()
			delete(s.tasks, key)
			n++
		}
	}
	return n
}

func (s *Scheduler) Pending(sessionID, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[taskKey{sessionID: sessionID, name: name}]
	return ok
}

// PendingPrefix counts pending tasks of sessionID whose name starts with prefix.
func (s *Scheduler) PendingPrefix(sessionID, prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.tasks {
		if key.sessionID == sessionID && strings.HasPrefix(key.name, prefix) {
			n++
		}
	}
	return n
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels everything and rejects further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for key, task := range s.tasks {
		task.timer.Stop()
		delete(s.tasks, key)
	}
}

func graceTask(participantID string) string {
	return taskGrace + participantID
}
