// Package notify delivers user-facing notifications about dashboard actions.
package notify

import (
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-dashboard/internal/model"
	"go.uber.org/zap"
)

// Notifier receives notifications. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(n model.Notification)
}

// Success builds a default-variant notification.
func Success(title, description string) model.Notification {
	return model.Notification{Title: title, Description: description, Variant: model.VariantDefault, CreatedAt: time.Now().UTC()}
}

// Failure builds a destructive-variant notification.
func Failure(title, description string) model.Notification {
	return model.Notification{Title: title, Description: description, Variant: model.VariantDestructive, CreatedAt: time.Now().UTC()}
}

// LogNotifier writes notifications to a zap logger.
type LogNotifier struct {
	logger *zap.SugaredLogger
}

func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(n model.Notification) {
	if n.Variant == model.VariantDestructive {
		l.logger.Warnw(n.Title, "description", n.Description)
		return
	}
	l.logger.Infow(n.Title, "description", n.Description)
}

// Recorder keeps the most recent notifications until they are drained.
type Recorder struct {
	mu    sync.Mutex
	items []model.Notification
	max   int
}

// NewRecorder keeps at most max pending notifications, dropping the oldest.
func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = 50
	}
	return &Recorder{max: max}
}

func (r *Recorder) Notify(n model.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	if len(r.items) > r.max {
		r.items = r.items[len(r.items)-r.max:]
	}
}

// Pending returns a copy of the pending notifications without clearing them.
func (r *Recorder) Pending() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Drain returns and clears the pending notifications, oldest first.
func (r *Recorder) Drain() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	if out == nil {
		out = []model.Notification{}
	}
	return out
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n model.Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}
