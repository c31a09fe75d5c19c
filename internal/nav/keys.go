package nav

// KeyEvent represents one normalized key press delivered by the host.
type KeyEvent struct {
	// Name is the host's string form of the key ("left", "j", "enter",
	// "esc", "home", "end", "G", "space").
	Name string
	// EditingField marks an event targeting an editable text field; such
	// events never drive navigation, except Escape which blurs the field.
	EditingField bool
}

// Handle dispatches one key event against the controller. It reports
// whether the event was consumed, so the host can stop further handling of
// consumed keys. An unbound controller consumes nothing.
func (c *Controller) Handle(ev KeyEvent) bool {
	if !c.bound {
		return false
	}
	if ev.EditingField {
		if ev.Name == "esc" || ev.Name == "escape" {
			if c.callbacks.OnBlurField != nil {
				c.callbacks.OnBlurField()
			}
			return true
		}
		return false
	}

	switch ev.Name {
	case "right", "l":
		c.startOr((*Controller).MoveRight)
		return true
	case "left", "h":
		c.startOr((*Controller).MoveLeft)
		return true
	case "down", "j":
		c.startOr((*Controller).MoveDown)
		return true
	case "up", "k":
		c.startOr((*Controller).MoveUp)
		return true
	case "enter", "space", " ":
		card := c.FocusedCard()
		if !c.navigating || card == nil {
			return false
		}
		if c.callbacks.OnOpen != nil {
			c.callbacks.OnOpen(*card)
		}
		return true
	case "esc", "escape":
		if !c.navigating {
			return false
		}
		c.ExitNavigation()
		return true
	case "home":
		if !c.navigating {
			return false
		}
		c.MoveToFirstCard()
		return true
	case "end", "G":
		if !c.navigating {
			return false
		}
		c.MoveToLastCard()
		return true
	}
	return false
}

// startOr runs move when already navigating, otherwise starts navigation
// without moving.
func (c *Controller) startOr(move func(*Controller)) {
	if !c.navigating {
		c.StartNavigation()
		return
	}
	move(c)
}
