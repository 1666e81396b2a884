package source

import (
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// Frame is one captured image.
type Frame struct {
	Image     image.Image
	Timestamp time.Time
	Seq       uint64
}

// Source yields the most recent frame. ok is false until the first frame.
type Source interface {
	Latest() (Frame, bool)
}

// MailboxStats counts published frames and frames overwritten before any
// consumer saw them.
type MailboxStats struct {
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
}

// Mailbox holds the latest published frame.
type Mailbox struct {
	mu     sync.Mutex
	frame  Frame
	has    bool
	unread bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Publish replaces the held frame and returns it with its sequence number.
// The caller must not modify img afterwards.
func (m *Mailbox) Publish(img image.Image, ts time.Time) Frame {
	seq := m.published.Add(1)
	f := Frame{Image: img, Timestamp: ts, Seq: seq}

	m.mu.Lock()
	if m.unread {
		m.dropped.Add(1)
	}
	m.frame = f
	m.has = true
	m.unread = true
	m.mu.Unlock()
	return f
}

// Latest implements Source.
func (m *Mailbox) Latest() (Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unread = false
	return m.frame, m.has
}

// Stats returns the publication counters.
func (m *Mailbox) Stats() MailboxStats {
	return MailboxStats{Published: m.published.Load(), Dropped: m.dropped.Load()}
}
