// Package notify defines the user-facing notification collaborator.
package notify

import charmLog "github.com/charmbracelet/log"

// Notifier delivers transient user-facing status messages.
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Info(msg string)
	Error(msg string)
}

// Nop discards every notification.
type Nop struct{}

// Success handles success.
func (Nop) Success(string) {}

// Warning handles warning.
func (Nop) Warning(string) {}

// Info handles info.
func (Nop) Info(string) {}

// Error handles error.
func (Nop) Error(string) {}

// LogNotifier routes notifications to a structured logger sink.
type LogNotifier struct {
	logger *charmLog.Logger
}

// NewLogNotifier constructs a new value for this package.
func NewLogNotifier(logger *charmLog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Success logs a success notification.
func (n *LogNotifier) Success(msg string) {
	if n == nil || n.logger == nil {
		return
	}
	n.logger.Info(msg, "severity", "success")
}

// Warning logs a warning notification.
func (n *LogNotifier) Warning(msg string) {
	if n == nil || n.logger == nil {
		return
	}
	n.logger.Warn(msg, "severity", "warning")
}

// Info logs an informational notification.
func (n *LogNotifier) Info(msg string) {
	if n == nil || n.logger == nil {
		return
	}
	n.logger.Info(msg, "severity", "info")
}

// Error logs an error notification.
func (n *LogNotifier) Error(msg string) {
	if n == nil || n.logger == nil {
		return
	}
	n.logger.Error(msg, "severity", "error")
}
