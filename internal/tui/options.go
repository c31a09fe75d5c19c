package tui

import (
	"strings"

	"github.com/hylla/tavla/internal/config"
)

type Option func(*Model)

// WithBoardID pins the board opened on startup.
func WithBoardID(boardID string) Option {
	return func(m *Model) {
		m.boardID = strings.TrimSpace(boardID)
	}
}

// WithKeyConfig applies configured key overrides.
func WithKeyConfig(cfg config.KeyConfig) Option {
	return func(m *Model) {
		m.keys = newKeyMap(cfg)
	}
}

// WithBoardConfig applies configured board display settings.
func WithBoardConfig(cfg config.BoardConfig) Option {
	return func(m *Model) {
		m.showLabels = cfg.ShowLabels
		m.showDueDate = cfg.ShowDueDate
	}
}

// WithToasts attaches the notifier feeding user-facing notifications into
// the running program.
func WithToasts(toasts *ToastNotifier) Option {
	return func(m *Model) {
		m.toasts = toasts
	}
}

// WithClipboard overrides the clipboard writer, used by tests.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.writeClipboard = write
		}
	}
}
