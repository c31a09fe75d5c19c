package tui

import (
	"testing"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/hylla/tavla/internal/config"
)

// TestKeyMapDefaults verifies behavior for the covered scenario.
func TestKeyMapDefaults(t *testing.T) {
	keys := newKeyMap(config.KeyConfig{})

	cases := []struct {
		binding key.Binding
		msg     tea.KeyPressMsg
	}{
		{keys.navLeft, tea.KeyPressMsg{Code: 'h', Text: "h"}},
		{keys.navLeft, tea.KeyPressMsg{Code: tea.KeyLeft}},
		{keys.navDown, tea.KeyPressMsg{Code: 'j', Text: "j"}},
		{keys.open, tea.KeyPressMsg{Code: tea.KeyEnter}},
		{keys.exit, tea.KeyPressMsg{Code: tea.KeyEscape}},
		{keys.lastCard, tea.KeyPressMsg{Code: 'G', Text: "G"}},
		{keys.quit, tea.KeyPressMsg{Code: 'q', Text: "q"}},
	}
	for i, tc := range cases {
		if !key.Matches(tc.msg, tc.binding) {
			t.Fatalf("case %d: %q should match", i, tc.msg.String())
		}
	}
}

// TestKeyMapOverrides verifies behavior for the covered scenario.
func TestKeyMapOverrides(t *testing.T) {
	keys := newKeyMap(config.KeyConfig{Left: "a", Right: "d", Quit: "x"})

	if !key.Matches(tea.KeyPressMsg{Code: 'a', Text: "a"}, keys.navLeft) {
		t.Fatal("override a should move left")
	}
	if key.Matches(tea.KeyPressMsg{Code: 'h', Text: "h"}, keys.navLeft) {
		t.Fatal("default h should be replaced by the override")
	}
	if !key.Matches(tea.KeyPressMsg{Code: tea.KeyLeft}, keys.navLeft) {
		t.Fatal("arrow keys stay bound alongside overrides")
	}
	if !key.Matches(tea.KeyPressMsg{Code: 'x', Text: "x"}, keys.quit) {
		t.Fatal("override x should quit")
	}
	if !key.Matches(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}, keys.quit) {
		t.Fatal("ctrl+c stays bound alongside overrides")
	}
}

// TestKeyOr verifies behavior for the covered scenario.
func TestKeyOr(t *testing.T) {
	if got := keyOr("", "q"); got != "q" {
		t.Fatalf("keyOr empty = %q", got)
	}
	if got := keyOr("  ", "q"); got != "q" {
		t.Fatalf("keyOr blank = %q", got)
	}
	if got := keyOr("x", "q"); got != "x" {
		t.Fatalf("keyOr set = %q", got)
	}
}
