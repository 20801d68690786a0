package session

import "sync"

// Variant is the visual style of a notice.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice is a transient user-visible notification.
type Notice struct {
	Variant     Variant `json:"variant"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
}

// Navigator receives navigation requests.
type Navigator interface {
	Navigate(path string)
}

// Notifier receives notices.
type Notifier interface {
	Notify(n Notice)
}

// Mailbox holds the latest navigation and queued notices of one portal
// client until its next response drains them.
type Mailbox struct {
	mu       sync.Mutex
	redirect string
	notices  []Notice
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Navigate records path as the pending navigation, replacing any earlier one.
func (m *Mailbox) Navigate(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redirect = path
}

// Notify queues a notice.
func (m *Mailbox) Notify(n Notice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, n)
}

// Drain returns and clears the pending navigation and notices.
func (m *Mailbox) Drain() (string, []Notice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	redirect, notices := m.redirect, m.notices
	m.redirect, m.notices = "", nil
	return redirect, notices
}
