package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
	"github.com/hylla/tavla/internal/config"
)

// keyMap represents key map data used by this package.
type keyMap struct {
	quit      key.Binding
	refresh   key.Binding
	navLeft   key.Binding
	navRight  key.Binding
	navUp     key.Binding
	navDown   key.Binding
	open      key.Binding
	exit      key.Binding
	firstCard key.Binding
	lastCard  key.Binding
	newCard   key.Binding
	yank      key.Binding
	deleteKey key.Binding
	cardLeft  key.Binding
	cardRight key.Binding
	boards    key.Binding
	queueInfo key.Binding
}

// newKeyMap constructs key map from configured overrides.
func newKeyMap(cfg config.KeyConfig) keyMap {
	return keyMap{
		quit:      key.NewBinding(key.WithKeys(keyOr(cfg.Quit, "q"), "ctrl+c"), key.WithHelp(keyOr(cfg.Quit, "q"), "quit")),
		refresh:   key.NewBinding(key.WithKeys(keyOr(cfg.Refresh, "r")), key.WithHelp(keyOr(cfg.Refresh, "r"), "refresh")),
		navLeft:   key.NewBinding(key.WithKeys(keyOr(cfg.Left, "h"), "left"), key.WithHelp(keyOr(cfg.Left, "h")+"/←", "list left")),
		navRight:  key.NewBinding(key.WithKeys(keyOr(cfg.Right, "l"), "right"), key.WithHelp(keyOr(cfg.Right, "l")+"/→", "list right")),
		navUp:     key.NewBinding(key.WithKeys(keyOr(cfg.Up, "k"), "up"), key.WithHelp(keyOr(cfg.Up, "k")+"/↑", "card up")),
		navDown:   key.NewBinding(key.WithKeys(keyOr(cfg.Down, "j"), "down"), key.WithHelp(keyOr(cfg.Down, "j")+"/↓", "card down")),
		open:      key.NewBinding(key.WithKeys(keyOr(cfg.Open, "enter"), "space"), key.WithHelp(keyOr(cfg.Open, "enter"), "open card")),
		exit:      key.NewBinding(key.WithKeys(keyOr(cfg.Exit, "esc")), key.WithHelp(keyOr(cfg.Exit, "esc"), "exit navigation")),
		firstCard: key.NewBinding(key.WithKeys(keyOr(cfg.FirstCard, "home")), key.WithHelp(keyOr(cfg.FirstCard, "home"), "first card")),
		lastCard:  key.NewBinding(key.WithKeys(keyOr(cfg.LastCard, "end"), "G"), key.WithHelp(keyOr(cfg.LastCard, "end")+"/G", "last card")),
		newCard:   key.NewBinding(key.WithKeys(keyOr(cfg.NewCard, "n")), key.WithHelp(keyOr(cfg.NewCard, "n"), "new card")),
		yank:      key.NewBinding(key.WithKeys(keyOr(cfg.Yank, "y")), key.WithHelp(keyOr(cfg.Yank, "y"), "yank card")),
		deleteKey: key.NewBinding(key.WithKeys(keyOr(cfg.Delete, "x")), key.WithHelp(keyOr(cfg.Delete, "x"), "delete card")),
		cardLeft:  key.NewBinding(key.WithKeys("["), key.WithHelp("[", "move card left")),
		cardRight: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "move card right")),
		boards:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "board picker")),
		queueInfo: key.NewBinding(key.WithKeys("Q"), key.WithHelp("Q", "queue status")),
	}
}

// keyOr applies a default when an override is unset.
func keyOr(configured, fallback string) string {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		return fallback
	}
	return configured
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.navDown, k.open, k.newCard, k.yank, k.refresh, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.navLeft, k.navRight, k.navUp, k.navDown, k.firstCard, k.lastCard, k.exit},
		{k.open, k.newCard, k.yank, k.deleteKey, k.cardLeft, k.cardRight},
		{k.boards, k.queueInfo, k.refresh, k.quit},
	}
}
