// Package notify is an in-process registry of transient, user-facing
// notifications with auto-expiry and synchronous subscriber fan-out.
package notify

import (
	"encoding/json"
	"slices"
	"sync"
	"time"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

const (
	DefaultTimeout = 5 * time.Second
	ErrorTimeout   = 8 * time.Second
)

type Notification struct {
	ID          int64
	Message     string
	Severity    Severity
	Timeout     time.Duration
	Dismissible bool
	CreatedAt   time.Time
}

func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          int64     `json:"id"`
		Message     string    `json:"message"`
		Severity    Severity  `json:"severity"`
		TimeoutMS   int64     `json:"timeout_ms"`
		Dismissible bool      `json:"dismissible"`
		CreatedAt   time.Time `json:"created_at"`
	}{n.ID, n.Message, n.Severity, n.Timeout.Milliseconds(), n.Dismissible, n.CreatedAt})
}

// Subscriber receives the full current list after every change.
type Subscriber func([]Notification)

type subscription struct {
	id int
	fn Subscriber
}

// Bus holds the current notifications. Subscribers are called synchronously,
// in registration order, from the goroutine that changed the list (or the
// expiry timer's goroutine). A subscriber must not call back into the Bus.
type Bus struct {
	defaultTimeout time.Duration
	errorTimeout   time.Duration

	mu      sync.Mutex
	nextID  int64
	items   []Notification
	timers  map[int64]*time.Timer
	subs    []subscription
	nextSub int
	closed  bool

	// dispatch keeps fan-outs from interleaving.
	dispatch sync.Mutex
}

// NewBus creates a Bus. Zero timeouts select DefaultTimeout and ErrorTimeout.
func NewBus(defaultTimeout, errorTimeout time.Duration) *Bus {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	if errorTimeout <= 0 {
		errorTimeout = ErrorTimeout
	}
	return &Bus{
		defaultTimeout: defaultTimeout,
		errorTimeout:   errorTimeout,
		nextID:         1,
		timers:         make(map[int64]*time.Timer),
	}
}

// Add stores a notification and returns its id. A timeout of 0 keeps the
// notification until it is removed.
func (b *Bus) Add(message string, severity Severity, timeout time.Duration, dismissible bool) int64 {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return 0
	}
	id := b.nextID
	b.nextID++
	b.items = append(b.items, Notification{
		ID:          id,
		Message:     message,
		Severity:    severity,
		Timeout:     timeout,
		Dismissible: dismissible,
		CreatedAt:   time.Now(),
	})
	if timeout > 0 {
		b.timers[id] = time.AfterFunc(timeout, func() { b.Remove(id) })
	}
	b.mu.Unlock()

	b.publish()
	return id
}

func (b *Bus) Info(message string) int64 {
	return b.Add(message, SeverityInfo, b.defaultTimeout, true)
}

func (b *Bus) Success(message string) int64 {
	return b.Add(message, SeveritySuccess, b.defaultTimeout, true)
}

func (b *Bus) Warning(message string) int64 {
	return b.Add(message, SeverityWarning, b.defaultTimeout, true)
}

// Error uses the longer error timeout.
func (b *Bus) Error(message string) int64 {
	return b.Add(message, SeverityError, b.errorTimeout, true)
}

// Remove deletes a notification. It returns false if id is unknown.
func (b *Bus) Remove(id int64) bool {
	b.mu.Lock()
	i := slices.IndexFunc(b.items, func(n Notification) bool { return n.ID == id })
	if i < 0 {
		b.mu.Unlock()
		return false
	}
	b.items = slices.Delete(b.items, i, i+1)
	if t, ok := b.timers[id]; ok {
		t.Stop()
		delete(b.timers, id)
	}
	b.mu.Unlock()

	b.publish()
	return true
}

// All returns a copy of the current notifications, oldest first.
func (b *Bus) All() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// Subscribe registers fn and returns a function that unregisters it.
func (b *Bus) Subscribe(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs = slices.DeleteFunc(b.subs, func(s subscription) bool { return s.id == id })
	}
}

// Close stops pending expiry timers and drops subscribers. Later calls to Add
// are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
	b.subs = nil
}

func (b *Bus) publish() {
	b.dispatch.Lock()
	defer b.dispatch.Unlock()

	b.mu.Lock()
	items := slices.Clone(b.items)
	subs := slices.Clone(b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(slices.Clone(items))
	}
}
