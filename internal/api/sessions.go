package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/buurtplein/buurtchat/internal/chat"
	"github.com/gin-gonic/gin"
)

// Clients pick their view session with this header.
const (
	SessionHeader    = "X-Session-ID"
	DefaultSessionID = "default"
)

// DefaultSessionIdle is how long an unused session lives when StartOpts does
// not say otherwise.
const DefaultSessionIdle = 30 * time.Minute

// sessionRegistry keeps one chat.Session per client-chosen id. Sessions that
// go unused for longer than the idle timeout are closed by expire, which
// releases their selected conversation and cancels their pending replies.
type sessionRegistry struct {
	svc *chat.Service
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	session  *chat.Session
	lastSeen time.Time
}

func newSessionRegistry(svc *chat.Service) *sessionRegistry {
	return &sessionRegistry{
		svc:      svc,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

// get returns the session for id, opening it on first use, and marks it seen.
func (r *sessionRegistry) get(id string) *chat.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		e = &sessionEntry{session: r.svc.NewSession()}
		r.sessions[id] = e
	}
	e.lastSeen = r.now()
	return e.session
}

// close tears down the session for id. It reports whether one existed.
func (r *sessionRegistry) close(id string) bool {
	r.mu.Lock()
	e, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		e.session.Close()
	}
	return ok
}

func (r *sessionRegistry) closeAll() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*sessionEntry)
	r.mu.Unlock()
	for _, e := range all {
		e.session.Close()
	}
}

// expire closes every session not seen within idle and returns how many it
// closed.
func (r *sessionRegistry) expire(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	var stale []*chat.Session
	r.mu.Lock()
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// sweep runs expire until ctx is done, checking a few times per idle period.
func (r *sessionRegistry) sweep(ctx context.Context, idle time.Duration) {
	interval := idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.expire(idle); n > 0 {
				log.Printf("api: closed %d idle sessions", n)
			}
		}
	}
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// sessionID reads the session header, falling back to DefaultSessionID.
func sessionID(c *gin.Context) string {
	if id := c.GetHeader(SessionHeader); id != "" {
		return id
	}
	return DefaultSessionID
}
