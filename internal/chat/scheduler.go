package chat

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Default reply behaviour.
const (
	DefaultReplyDelay    = 2 * time.Second
	DefaultReplyTemplate = "Bedankt voor je bericht! Ik kom er zo snel mogelijk bij je op terug."
)

// ReplyFunc delivers a simulated counterpart reply. sentAt is the time the
// user's message was sent.
type ReplyFunc func(ctx context.Context, conversationID string, sentAt time.Time, content string)

// ReplyScheduler stands in for a real delivery channel: after every send it
// schedules one canned counterpart reply, fired after a fixed delay unless it
// is cancelled first.
type ReplyScheduler struct {
	delay     time.Duration
	templates []string
	deliver   ReplyFunc

	mu      sync.Mutex
	next    int
	closed  bool
	pending map[*PendingReply]struct{}
	wg      sync.WaitGroup
}

// ReplySchedulerOpts holds parameters for creating a ReplyScheduler.
type ReplySchedulerOpts struct {
	Delay     time.Duration // defaults to DefaultReplyDelay
	Templates []string      // rotated in order; defaults to DefaultReplyTemplate
	Deliver   ReplyFunc
}

// NewReplyScheduler creates a ReplyScheduler.
func NewReplyScheduler(opts ReplySchedulerOpts) (*ReplyScheduler, error) {
	if opts.Deliver == nil {
		return nil, fmt.Errorf("chat: reply scheduler: deliver func is required")
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultReplyDelay
	}
	templates := append([]string(nil), opts.Templates...)
	if len(templates) == 0 {
		templates = []string{DefaultReplyTemplate}
	}
	return &ReplyScheduler{
		delay:     delay,
		templates: templates,
		deliver:   opts.Deliver,
		pending:   make(map[*PendingReply]struct{}),
	}, nil
}

// Delay returns the configured reply delay.
func (s *ReplyScheduler) Delay() time.Duration {
	return s.delay
}

// PendingReply is the handle for one scheduled reply.
type PendingReply struct {
	ConversationID string
	DueAt          time.Time
	Content        string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	fired     bool
	cancelled bool
}

// Cancel stops the reply and reports whether this call stopped it. It
// returns false when the reply already fired, was cancelled before or was
// abandoned with the context it was scheduled under.
func (p *PendingReply) Cancel() bool {
	p.mu.Lock()
	if p.fired || p.cancelled || p.ctx.Err() != nil {
		p.mu.Unlock()
		return false
	}
	p.cancelled = true
	p.mu.Unlock()
	p.cancel()
	return true
}

// Done is closed once the reply has been delivered or abandoned.
func (p *PendingReply) Done() <-chan struct{} {
	return p.done
}

// Fired reports whether the reply was handed to the deliver func.
func (p *PendingReply) Fired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fired
}

func (p *PendingReply) markFired() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancelled || p.ctx.Err() != nil {
		return false
	}
	p.fired = true
	return true
}

// Schedule arranges a reply in conversationID at sentAt plus the delay. ctx
// bounds the reply's lifetime: cancelling it abandons the reply, so pass a
// context that outlives the request which triggered the send.
func (s *ReplyScheduler) Schedule(ctx context.Context, conversationID string, sentAt time.Time) (*PendingReply, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSchedulerClosed
	}
	content := s.templates[s.next%len(s.templates)]
	s.next++

	rctx, cancel := context.WithCancel(ctx)
	p := &PendingReply{
		ConversationID: conversationID,
		DueAt:          sentAt.Add(s.delay),
		Content:        content,
		ctx:            rctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	s.pending[p] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(rctx, p, sentAt)
	return p, nil
}

func (s *ReplyScheduler) run(ctx context.Context, p *PendingReply, sentAt time.Time) {
	defer s.wg.Done()
	defer close(p.done)
	defer s.forget(p)
	defer p.cancel()

	wait := time.Until(p.DueAt)
	if wait < 0 {
		wait = 0
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	if !p.markFired() {
		return
	}
	s.deliver(ctx, p.ConversationID, sentAt, p.Content)
}

func (s *ReplyScheduler) forget(p *PendingReply) {
	s.mu.Lock()
	delete(s.pending, p)
	s.mu.Unlock()
}

// Pending returns the number of replies that have not finished yet.
func (s *ReplyScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels every pending reply, waits for replies already being
// delivered, and rejects further Schedule calls.
func (s *ReplyScheduler) Close() {
	s.mu.Lock()
	s.closed = true
	pending := make([]*PendingReply, 0, len(s.pending))
	for p := range s.pending {
		pending = append(pending, p)
	}
	s.mu.Unlock()

	for _, p := range pending {
		p.Cancel()
	}
	s.wg.Wait()
}
