package notify

import (
	"sync"
	"time"

	"github.com/retailhub/portal-gateway/pkg/enums"
)

const defaultTTL = 3 * time.Second

// Notification is a transient banner shown on a portal view.
type Notification struct {
	Message string                 `json:"message"`
	Kind    enums.NotificationKind `json:"kind"`
	ShownAt time.Time              `json:"shownAt"`
}

// Presenter holds at most one live notification per view. Showing a new
// one replaces the current one and restarts the dismiss window, so a
// rapid burst of outcomes never flashes stale banners.
type Presenter struct {
	ttl time.Duration

	mu      sync.Mutex
	current *Notification
	gen     uint64
	timer   *time.Timer
}

// NewPresenter builds a presenter with the given dismiss window; zero or
// negative falls back to the default.
func NewPresenter(ttl time.Duration) *Presenter {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Presenter{ttl: ttl}
}

// Show replaces the live notification and arms a fresh dismiss timer.
func (p *Presenter) Show(message string, kind enums.NotificationKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	gen := p.gen
	p.current = &Notification{
		Message: message,
		Kind:    kind,
		ShownAt: time.Now(),
	}
	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.ttl, func() {
		p.expire(gen)
	})
}

// Success shows a success notification.
func (p *Presenter) Success(message string) {
	p.Show(message, enums.NotificationSuccess)
}

// Warning shows a warning notification.
func (p *Presenter) Warning(message string) {
	p.Show(message, enums.NotificationWarning)
}

// Error shows an error notification.
func (p *Presenter) Error(message string) {
	p.Show(message, enums.NotificationError)
}

// Current returns the live notification, if any.
func (p *Presenter) Current() (Notification, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Notification{}, false
	}
	return *p.current, true
}

// Clear dismisses the live notification and disarms its timer.
func (p *Presenter) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.current = nil
}

// expire only clears the notification belonging to its own Show call. A
// replacement bumps the generation so a stale timer firing late is a
// no-op.
func (p *Presenter) expire(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return
	}
	p.current = nil
	p.timer = nil
}
