package repay

import (
	"context"
	"log/slog"
)

// Kind classifies a user notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notification is a fire-and-forget message shown to the user.
type Notification struct {
	Message     string
	Kind        Kind
	Description string
}

// Notifier delivers notifications to the user. Implementations must not block.
type Notifier interface {
	Notify(Notification)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(Notification)

// Notify calls f.
func (f NotifierFunc) Notify(n Notification) {
	if f != nil {
		f(n)
	}
}

// Notifiers fans a notification out to every non-nil notifier in order.
type Notifiers []Notifier

// Notify delivers n to each notifier.
func (ns Notifiers) Notify(n Notification) {
	for _, notifier := range ns {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}

// LogNotifier writes notifications to a structured logger, errors at error
// level and everything else at info.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs n.
func (l LogNotifier) Notify(n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch n.Kind {
	case KindError:
		level = slog.LevelError
	case KindWarning:
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, n.Message, "kind", string(n.Kind), "description", n.Description)
}
