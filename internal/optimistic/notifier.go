package optimistic

import (
	"sync"

	"go.uber.org/zap"
)

// Level of a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// GenericFailure is shown when the request never got a structured answer.
const GenericFailure = "Something went wrong. Please try again."

// Toast is a transient user-facing notification.
type Toast struct {
	Level    Level
	Message  string
	IntentID string
}

// Notifier surfaces toasts to the user.
type Notifier interface {
	Notify(t Toast)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Toast)

func (f NotifierFunc) Notify(t Toast) { f(t) }

// LogNotifier writes toasts to a zap logger.
type LogNotifier struct{ Log *zap.Logger }

func (n LogNotifier) Notify(t Toast) {
	fields := []zap.Field{zap.String("level", string(t.Level)), zap.String("intent", t.IntentID)}
	if t.Level == LevelError {
		n.Log.Warn(t.Message, fields...)
		return
	}
	n.Log.Info(t.Message, fields...)
}

// Recorder keeps every toast it receives.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

// Toasts returns a copy of what has been recorded.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.toasts = nil
	r.mu.Unlock()
}

type multiNotifier []Notifier

func (m multiNotifier) Notify(t Toast) {
	for _, n := range m {
		n.Notify(t)
	}
}

// Tee fans a toast out to several notifiers.
func Tee(ns ...Notifier) Notifier { return multiNotifier(ns) }
