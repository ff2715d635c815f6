// Package notify delivers user-facing notifications (toasts) raised by the
// cart, checkout and order flows.
package notify

import (
	"context"
	"io"
	"log"
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
)

// Notification is a single message addressed to a session owner.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Owner   string    `json:"owner,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier delivers notifications. Delivery is best effort; failures are
// logged by the implementation and never returned to the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// New fills in the timestamp of a notification.
func New(kind Kind, owner, message string) Notification {
	return Notification{Kind: kind, Message: message, Owner: owner, At: time.Now().UTC()}
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) {
	l.logger.Printf("notify: %s owner=%s message=%q", n.Kind, n.Owner, n.Message)
}

// Fanout forwards every notification to each of its notifiers in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, notifier := range f {
		if notifier != nil {
			notifier.Notify(ctx, n)
		}
	}
}

type collectorKey struct{}

type collector struct {
	mu    sync.Mutex
	items []Notification
}

// WithCollector returns a context that gathers the notifications raised while
// serving one request, so the response can carry them back.
func WithCollector(ctx context.Context) context.Context {
	return context.WithValue(ctx, collectorKey{}, &collector{})
}

// Collected returns the notifications gathered in ctx.
func Collected(ctx context.Context) []Notification {
	c, ok := ctx.Value(collectorKey{}).(*collector)
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// RequestNotifier appends notifications to the collector carried by ctx.
type RequestNotifier struct{}

func (RequestNotifier) Notify(ctx context.Context, n Notification) {
	c, ok := ctx.Value(collectorKey{}).(*collector)
	if !ok {
		return
	}
	c.mu.Lock()
	c.items = append(c.items, n)
	c.mu.Unlock()
}
