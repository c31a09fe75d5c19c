package tui

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/exp/teatest/v2"
)

// TestProgramStartupAndQuit verifies behavior for the covered scenario.
func TestProgramStartupAndQuit(t *testing.T) {
	m := NewModel(newFakeService())
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 36))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "Sprint 12")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

// TestProgramNavigationHighlightsCard verifies behavior for the covered scenario.
func TestProgramNavigationHighlightsCard(t *testing.T) {
	m := NewModel(newFakeService())
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(120, 36))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "Fix login")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: 'j', Text: "j"})
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return strings.Contains(string(out), "selected: Fix login")
	}, teatest.WithDuration(2*time.Second), teatest.WithCheckInterval(10*time.Millisecond))

	tm.Send(tea.KeyPressMsg{Code: 'q', Text: "q"})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}
