package match

import (
	"sort"
	"sync"
	"time"

	"tic-tac-toe-server/internal/game"
)

type binding struct {
	sessionID     string
	participantID string
}

// Registry owns the session table and the connection reverse index. Its lock
// is never held while a session lock is being acquired.
type Registry struct {
	boardSize int
	evaluator game.Evaluator

	mu       sync.Mutex
	sessions map[string]*Session
	bindings map[string]binding
}

func NewRegistry(boardSize int, eval game.Evaluator) *Registry {
	if boardSize <= 0 {
		boardSize = game.DefaultBoardSize
	}
	if eval == nil {
		eval = game.LineEvaluator{}
	}
	return &Registry{
		boardSize: boardSize,
		evaluator: eval,
		sessions:  map[string]*Session{},
		bindings:  map[string]binding{},
	}
}

// GetOrCreate returns the session for id, creating it in forming state when unknown.
func (r *Registry) GetOrCreate(id string, now time.Time) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s := r.sessions[id]; s != nil {
		return s, false
	}
	s := newSession(id, r.boardSize, r.evaluator, now)
	r.sessions[id] = s
	metricSessionsLive.Set(int64(len(r.sessions)))
	return s, true
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Delete removes id only while it still maps to s, so a stale deletion
// cannot evict a newer session that reused the identifier.
func (r *Registry) Delete(id string, s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[id]
	if !ok || cur != s {
		return false
	}
	delete(r.sessions, id)
	for connID, b := range r.bindings {
		if b.sessionID == id {
			delete(r.bindings, connID)
		}
	}
	metricSessionsLive.Set(int64(len(r.sessions)))
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sessions returns a snapshot of the live sessions ordered by id.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) bind(connID, sessionID, participantID string) {
	r.mu.Lock()
	r.bindings[connID] = binding{sessionID: sessionID, participantID: participantID}
	r.mu.Unlock()
}

func (r *Registry) unbind(connID string) {
	r.mu.Lock()
	delete(r.bindings, connID)
	r.mu.Unlock()
}

func (r *Registry) lookup(connID string) (binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[connID]
	return b, ok
}

// resolve maps a connection to its session, or reports no binding.
func (r *Registry) resolve(connID string) (*Session, binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[connID]
	if !ok {
		return nil, binding{}, false
	}
	s, ok := r.sessions[b.sessionID]
	if !ok {
		delete(r.bindings, connID)
		return nil, binding{}, false
	}
	return s, b, true
}
