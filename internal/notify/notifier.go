// Package notify is the single user-visible notification channel (the toast
// analog). Every user-facing auth failure and redirect decision goes through
// one Notifier; nothing else surfaces messages to the user.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Level classifies a notification for presentation.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is one user-visible message.
type Notification struct {
	Level   Level
	Message string
}

// Notifier delivers user-visible notifications.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string)
}

// SlogNotifier logs notifications; the web layer additionally surfaces the
// last notification per response via a header, so structured logs are the
// durable record.
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier constructs a logger-backed notifier.
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) Notify(ctx context.Context, level Level, message string) {
	switch level {
	case LevelError:
		n.logger.WarnContext(ctx, "user notification", "level", string(level), "message", message)
	default:
		n.logger.InfoContext(ctx, "user notification", "level", string(level), "message", message)
	}
}

// Recorder captures notifications for tests asserting "exactly one
// notification per redirect decision".
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
}

// NewRecorder constructs an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{Level: level, Message: message})
}

// All returns the captured notifications in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notifications))
	copy(out, r.notifications)
	return out
}

// Reset clears captured notifications between test cases.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
}
