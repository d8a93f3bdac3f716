package overpass

import "go.uber.org/zap"

// Notifier receives human-readable progress messages while a query waits
// between attempts. Notify is called synchronously on the query goroutine and
// must return promptly.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string)

// Notify calls f(message).
func (f NotifierFunc) Notify(message string) { f(message) }

// NopNotifier discards all messages.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(string) {}

// LogNotifier writes messages to a zap logger at info level.
type LogNotifier struct {
	Logger *zap.Logger
}

// Notify logs the message.
func (n LogNotifier) Notify(message string) {
	logger := n.Logger
	if logger == nil {
		logger = zap.L()
	}
	logger.Info("overpass: progress", zap.String("message", message))
}
