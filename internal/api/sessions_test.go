package api

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestSessionRegistry_ExpireClosesIdleSessions(t *testing.T) {
	a := newTestAPI(t, nil)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a.sessions.now = func() time.Time { return now }
	id := a.idOf(t, "Fietsenmaker Jansen")

	a.do(t, http.MethodPost, "/api/conversations/"+id+"/select", "", "tab-old")
	a.do(t, http.MethodPost, "/api/conversations/"+id+"/messages", `{"content":"hoi"}`, "tab-old")
	pending := a.sessions.get("tab-old").Pending()
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	now = now.Add(20 * time.Minute)
	a.do(t, http.MethodGet, "/api/conversations", "", "tab-new")
	now = now.Add(15 * time.Minute)

	if n := a.sessions.expire(30 * time.Minute); n != 1 {
		t.Fatalf("expire closed %d sessions, want 1", n)
	}
	if a.sessions.len() != 1 {
		t.Errorf("sessions = %d, want 1", a.sessions.len())
	}
	if a.svc.Inbox().IsActive(id) {
		t.Error("conversation still active after its session expired")
	}
	select {
	case <-pending[0].Done():
	case <-time.After(2 * time.Second):
		t.Fatal("pending reply not cancelled on expiry")
	}
	if pending[0].Fired() {
		t.Error("reply fired after the session expired")
	}
}

func TestSessionRegistry_UseKeepsSessionAlive(t *testing.T) {
	a := newTestAPI(t, nil)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	a.sessions.now = func() time.Time { return now }

	for i := 0; i < 4; i++ {
		a.do(t, http.MethodGet, "/api/unread", "", "")
		a.do(t, http.MethodGet, "/api/conversations", "", "")
		now = now.Add(20 * time.Minute)
		if n := a.sessions.expire(30 * time.Minute); n != 0 {
			t.Fatalf("round %d: expire closed %d sessions, want 0", i, n)
		}
	}
}

func TestSessionRegistry_SweepStopsWithContext(t *testing.T) {
	a := newTestAPI(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.sessions.sweep(ctx, time.Minute)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not stop")
	}
}
