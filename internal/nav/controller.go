// Package nav implements a keyboard-driven cursor over a board's lists and
// cards. The controller owns its indices exclusively; the host feeds it a
// board snapshot and key events and observes focus through the derived
// accessors and callbacks.
package nav

// List represents one navigable column of the board.
type List struct {
	ID    string
	Title string
}

// Card represents one navigable item inside a list.
type Card struct {
	ID     string
	ListID string
	Title  string
}

// Callbacks carries the host hooks the controller invokes.
type Callbacks struct {
	// OnSelect fires whenever the focused card changes while navigating,
	// and once with nil when navigation exits.
	OnSelect func(*Card)
	// OnOpen fires when the focused card is activated.
	OnOpen func(Card)
	// OnBlurField fires when Escape is pressed inside an editable field.
	OnBlurField func()
}

// Controller tracks a 2D cursor over lists and their cards.
//
// The sentinel index -1 means "nothing focused"; when not navigating both
// indices sit at the sentinel. A focused list with zero cards pins the card
// index to -1 across every operation.
type Controller struct {
	lists       []List
	cardsByList map[string][]Card

	listIndex  int
	cardIndex  int
	navigating bool
	bound      bool

	callbacks Callbacks

	// lastNotified tracks the card identity last reported through
	// OnSelect so a change fires exactly once.
	lastNotified   string
	lastNotifiedOK bool
}

// NewController constructs a controller with the cursor at its sentinels.
func NewController(callbacks Callbacks) *Controller {
	return &Controller{
		listIndex: -1,
		cardIndex: -1,
		callbacks: callbacks,
	}
}

// SetBoard replaces the snapshot the cursor ranges over. Lists absent from
// cardsByList are treated as empty. Indices are re-clamped against the new
// snapshot so a shrinking board never leaves the cursor out of range.
func (c *Controller) SetBoard(lists []List, cardsByList map[string][]Card) {
	c.lists = lists
	c.cardsByList = cardsByList
	if !c.navigating {
		return
	}
	if len(c.lists) == 0 {
		c.listIndex = -1
		c.cardIndex = -1
	} else {
		c.listIndex = clamp(c.listIndex, 0, len(c.lists)-1)
		c.cardIndex = clampCard(c.cardIndex, c.focusedCardCount())
	}
	c.notifySelection()
}

// Bind enables key handling. While unbound the controller ignores every
// event and mutates nothing.
func (c *Controller) Bind() { c.bound = true }

// Release disables key handling. Navigation state is left intact so a later
// Bind resumes where the cursor was.
func (c *Controller) Release() { c.bound = false }

// Bound reports whether key handling is enabled.
func (c *Controller) Bound() bool { return c.bound }

// StartNavigation begins intercepting directional keys. Sentinel indices are
// initialized to the first list and first card; otherwise the existing
// position is resumed.
func (c *Controller) StartNavigation() {
	c.navigating = true
	if c.listIndex == -1 && len(c.lists) > 0 {
		c.listIndex = 0
		c.cardIndex = clampCard(0, c.focusedCardCount())
	}
	c.notifySelection()
}

// ExitNavigation resets the cursor to its sentinels and reports the cleared
// selection to the host.
func (c *Controller) ExitNavigation() {
	c.navigating = false
	c.listIndex = -1
	c.cardIndex = -1
	if c.lastNotifiedOK {
		c.lastNotifiedOK = false
		c.lastNotified = ""
	}
	if c.callbacks.OnSelect != nil {
		c.callbacks.OnSelect(nil)
	}
}

// MoveRight advances the cursor one list, clamped to the last list, and
// re-clamps the card index to the new list's card count.
func (c *Controller) MoveRight() {
	if len(c.lists) == 0 {
		return
	}
	c.listIndex = clamp(c.listIndex+1, 0, len(c.lists)-1)
	c.cardIndex = clampCard(c.cardIndex, c.focusedCardCount())
	c.notifySelection()
}

// MoveLeft retreats the cursor one list, clamped to the first list, and
// re-clamps the card index to the new list's card count.
func (c *Controller) MoveLeft() {
	if len(c.lists) == 0 {
		return
	}
	c.listIndex = clamp(c.listIndex-1, 0, len(c.lists)-1)
	c.cardIndex = clampCard(c.cardIndex, c.focusedCardCount())
	c.notifySelection()
}

// MoveDown advances the cursor one card, clamped to the last card of the
// focused list.
func (c *Controller) MoveDown() {
	count := c.focusedCardCount()
	if count == 0 {
		return
	}
	c.cardIndex = clamp(c.cardIndex+1, 0, count-1)
	c.notifySelection()
}

// MoveUp retreats the cursor one card, clamped to the first card of the
// focused list.
func (c *Controller) MoveUp() {
	count := c.focusedCardCount()
	if count == 0 {
		return
	}
	c.cardIndex = clamp(c.cardIndex-1, 0, count-1)
	c.notifySelection()
}

// MoveToFirstCard jumps to the first card of the focused list.
func (c *Controller) MoveToFirstCard() {
	c.cardIndex = clampCard(0, c.focusedCardCount())
	c.notifySelection()
}

// MoveToLastCard jumps to the last card of the focused list.
func (c *Controller) MoveToLastCard() {
	count := c.focusedCardCount()
	c.cardIndex = clampCard(count-1, count)
	c.notifySelection()
}

// Navigating reports whether the controller is intercepting directional keys.
func (c *Controller) Navigating() bool { return c.navigating }

// ListIndex reports the focused list index, or -1.
func (c *Controller) ListIndex() int { return c.listIndex }

// CardIndex reports the focused card index, or -1.
func (c *Controller) CardIndex() int { return c.cardIndex }

// FocusedList reports the list under the cursor.
func (c *Controller) FocusedList() (List, bool) {
	if c.listIndex < 0 || c.listIndex >= len(c.lists) {
		return List{}, false
	}
	return c.lists[c.listIndex], true
}

// FocusedCard reports the card under the cursor, or nil when no card is
// focused.
func (c *Controller) FocusedCard() *Card {
	list, ok := c.FocusedList()
	if !ok {
		return nil
	}
	cards := c.cardsByList[list.ID]
	if c.cardIndex < 0 || c.cardIndex >= len(cards) {
		return nil
	}
	card := cards[c.cardIndex]
	return &card
}

// IsListFocused reports whether the list with the given id is under the
// cursor.
func (c *Controller) IsListFocused(id string) bool {
	list, ok := c.FocusedList()
	return ok && list.ID == id
}

// IsCardFocused reports whether the card with the given id is under the
// cursor.
func (c *Controller) IsCardFocused(id string) bool {
	card := c.FocusedCard()
	return card != nil && card.ID == id
}

func (c *Controller) focusedCardCount() int {
	list, ok := c.FocusedList()
	if !ok {
		return 0
	}
	return len(c.cardsByList[list.ID])
}

// notifySelection reports the focused card through OnSelect when its
// identity changed since the last report. Nothing fires while not
// navigating.
func (c *Controller) notifySelection() {
	if !c.navigating || c.callbacks.OnSelect == nil {
		return
	}
	card := c.FocusedCard()
	if card == nil {
		if c.lastNotifiedOK {
			c.lastNotifiedOK = false
			c.lastNotified = ""
			c.callbacks.OnSelect(nil)
		}
		return
	}
	if c.lastNotifiedOK && c.lastNotified == card.ID {
		return
	}
	c.lastNotified = card.ID
	c.lastNotifiedOK = true
	c.callbacks.OnSelect(card)
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

// clampCard fits a card index to a list of count cards; an empty list pins
// the index to the sentinel.
func clampCard(v, count int) int {
	if count == 0 {
		return -1
	}
	return clamp(v, 0, count-1)
}
