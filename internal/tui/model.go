// Package tui renders the board client and hosts the keyboard cursor.
package tui

import (
	"context"
	"fmt"
	stdcolor "image/color"
	"sort"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/config"
	"github.com/hylla/tavla/internal/nav"
	"github.com/hylla/tavla/internal/remote"
)

// Service represents service data used by this package.
type Service interface {
	Boards(context.Context) ([]remote.BoardRecord, error)
	Board(context.Context, string) (app.BoardView, error)
	CreateCard(context.Context, app.CreateCardInput) (remote.CardRecord, error)
	MoveCard(context.Context, string, string, int) (remote.CardRecord, error)
	DeleteCard(context.Context, string) error
	QueueState() app.QueueState
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeNewCard
	modeCardDetail
	modeBoardPicker
	modeQueueInfo
)

// navEventSink collects cursor callbacks fired during one key event so the
// model can fold them into its own state.
type navEventSink struct {
	selected    *nav.Card
	selectedSet bool
	opened      *nav.Card
	blurField   bool
}

// reset clears the sink for the next key event.
func (s *navEventSink) reset() {
	s.selected = nil
	s.selectedSet = false
	s.opened = nil
	s.blurField = false
}

// Model represents model data used by this package.
type Model struct {
	svc Service

	boardID string

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	showLabels  bool
	showDueDate bool

	view        app.BoardView
	lists       []remote.ListRecord
	cardsByList map[string][]remote.CardRecord

	cursor    *nav.Controller
	navEvents *navEventSink

	selectedCardID string
	openCardID     string

	mode       inputMode
	titleInput textinput.Model

	boards     []remote.BoardRecord
	boardIndex int

	markdown markdownRenderer

	toasts        *ToastNotifier
	toastLine     string
	toastSeverity string

	writeClipboard func(string) error
}

// boardLoadedMsg carries message data through update handling.
type boardLoadedMsg struct {
	view   app.BoardView
	boards []remote.BoardRecord
	err    error
}

// actionMsg carries message data through update handling.
type actionMsg struct {
	err    error
	status string
	reload bool
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	titleInput := textinput.New()
	titleInput.Prompt = "title: "
	titleInput.Placeholder = "new card title"
	titleInput.CharLimit = 200

	sink := &navEventSink{}
	cursor := nav.NewController(nav.Callbacks{
		OnSelect: func(card *nav.Card) {
			sink.selected = card
			sink.selectedSet = true
		},
		OnOpen: func(card nav.Card) {
			opened := card
			sink.opened = &opened
		},
		OnBlurField: func() {
			sink.blurField = true
		},
	})
	cursor.Bind()

	m := Model{
		svc:            svc,
		status:         "loading...",
		help:           h,
		keys:           newKeyMap(config.KeyConfig{}),
		showLabels:     true,
		showDueDate:    true,
		cardsByList:    map[string][]remote.CardRecord{},
		cursor:         cursor,
		navEvents:      sink,
		titleInput:     titleInput,
		writeClipboard: clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadBoard, m.waitForToast())
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		if len(msg.boards) > 0 {
			m.boards = msg.boards
		}
		m.applyBoardView(msg.view)
		if m.view.FromCache {
			m.status = "offline snapshot from " + m.view.FetchedAt.Local().Format("15:04")
		} else if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.reload {
			return m, m.loadBoard
		}
		return m, nil

	case toastMsg:
		m.toastLine = msg.text
		m.toastSeverity = msg.severity
		return m, m.waitForToast()

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	default:
		return m, nil
	}
}

// handleKey routes one key press through the active mode and the cursor.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeNewCard:
		return m.handleNewCardKey(msg)
	case modeCardDetail:
		return m.handleDetailKey(msg)
	case modeBoardPicker:
		return m.handleBoardPickerKey(msg)
	case modeQueueInfo:
		if key.Matches(msg, m.keys.exit, m.keys.queueInfo) {
			m.mode = modeNone
		}
		return m, nil
	}

	if ev, ok := m.navEventFor(msg); ok {
		if m.cursor.Handle(ev) {
			return m.applyNavEvents()
		}
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		m.status = "refreshing..."
		return m, m.loadBoard
	case key.Matches(msg, m.keys.newCard):
		list, ok := m.cursor.FocusedList()
		if !ok && len(m.lists) > 0 {
			list = remoteListToNav(m.lists[0])
			m.cursor.StartNavigation()
		}
		if list.ID == "" {
			m.status = "no list to add a card to"
			return m, nil
		}
		m.mode = modeNewCard
		m.titleInput.SetValue("")
		return m, m.titleInput.Focus()
	case key.Matches(msg, m.keys.yank):
		return m.yankFocusedCard()
	case key.Matches(msg, m.keys.deleteKey):
		return m.deleteFocusedCard()
	case key.Matches(msg, m.keys.cardLeft):
		return m.moveFocusedCard(-1)
	case key.Matches(msg, m.keys.cardRight):
		return m.moveFocusedCard(1)
	case key.Matches(msg, m.keys.boards):
		if len(m.boards) == 0 {
			m.status = "no boards loaded"
			return m, nil
		}
		m.mode = modeBoardPicker
		m.boardIndex = 0
		for idx, board := range m.boards {
			if board.ID == m.boardID {
				m.boardIndex = idx
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.queueInfo):
		m.mode = modeQueueInfo
		return m, nil
	case msg.String() == "?":
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

// handleNewCardKey drives the new-card title input.
func (m Model) handleNewCardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	// The input field owns every key except Escape, which blurs it.
	if m.cursor.Handle(nav.KeyEvent{Name: msg.String(), EditingField: true}) {
		if m.navEvents.blurField {
			m.navEvents.reset()
			m.mode = modeNone
			m.titleInput.Blur()
			m.status = "new card canceled"
		}
		return m, nil
	}
	if msg.String() == "enter" {
		title := strings.TrimSpace(m.titleInput.Value())
		m.mode = modeNone
		m.titleInput.Blur()
		if title == "" {
			m.status = "empty title discarded"
			return m, nil
		}
		return m, m.createCard(title)
	}
	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

// handleDetailKey drives the card detail overlay.
func (m Model) handleDetailKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exit, m.keys.open):
		m.mode = modeNone
		m.openCardID = ""
	case key.Matches(msg, m.keys.yank):
		return m.yankFocusedCard()
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

// handleBoardPickerKey drives the board picker overlay.
func (m Model) handleBoardPickerKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.navDown):
		if m.boardIndex < len(m.boards)-1 {
			m.boardIndex++
		}
	case key.Matches(msg, m.keys.navUp):
		if m.boardIndex > 0 {
			m.boardIndex--
		}
	case key.Matches(msg, m.keys.open):
		m.mode = modeNone
		m.boardID = m.boards[m.boardIndex].ID
		m.status = "loading board..."
		return m, m.loadBoard
	case key.Matches(msg, m.keys.exit):
		m.mode = modeNone
	}
	return m, nil
}

// navEventFor translates a key press into a canonical cursor event.
func (m Model) navEventFor(msg tea.KeyPressMsg) (nav.KeyEvent, bool) {
	switch {
	case key.Matches(msg, m.keys.navLeft):
		return nav.KeyEvent{Name: "left"}, true
	case key.Matches(msg, m.keys.navRight):
		return nav.KeyEvent{Name: "right"}, true
	case key.Matches(msg, m.keys.navUp):
		return nav.KeyEvent{Name: "up"}, true
	case key.Matches(msg, m.keys.navDown):
		return nav.KeyEvent{Name: "down"}, true
	case key.Matches(msg, m.keys.open):
		return nav.KeyEvent{Name: "enter"}, true
	case key.Matches(msg, m.keys.exit):
		return nav.KeyEvent{Name: "esc"}, true
	case key.Matches(msg, m.keys.firstCard):
		return nav.KeyEvent{Name: "home"}, true
	case key.Matches(msg, m.keys.lastCard):
		return nav.KeyEvent{Name: "end"}, true
	}
	return nav.KeyEvent{}, false
}

// applyNavEvents folds cursor callbacks into model state.
func (m Model) applyNavEvents() (tea.Model, tea.Cmd) {
	sink := m.navEvents
	if sink.selectedSet {
		if sink.selected == nil {
			m.selectedCardID = ""
			if !m.cursor.Navigating() {
				m.status = "navigation off"
			}
		} else {
			m.selectedCardID = sink.selected.ID
			m.status = "selected: " + sink.selected.Title
		}
	}
	if sink.opened != nil {
		m.openCardID = sink.opened.ID
		m.mode = modeCardDetail
	}
	sink.reset()
	return m, nil
}

// applyBoardView replaces the rendered snapshot and re-feeds the cursor.
func (m *Model) applyBoardView(view app.BoardView) {
	m.view = view
	m.boardID = view.Snapshot.Board.ID

	lists := append([]remote.ListRecord(nil), view.Snapshot.Lists...)
	sort.SliceStable(lists, func(i, j int) bool { return lists[i].Position < lists[j].Position })
	cardsByList := map[string][]remote.CardRecord{}
	for _, card := range view.Snapshot.Cards {
		cardsByList[card.ListID] = append(cardsByList[card.ListID], card)
	}
	for listID := range cardsByList {
		cards := cardsByList[listID]
		sort.SliceStable(cards, func(i, j int) bool { return cards[i].Position < cards[j].Position })
		cardsByList[listID] = cards
	}
	m.lists = lists
	m.cardsByList = cardsByList

	navLists := make([]nav.List, 0, len(lists))
	for _, list := range lists {
		navLists = append(navLists, remoteListToNav(list))
	}
	navCards := map[string][]nav.Card{}
	for listID, cards := range cardsByList {
		items := make([]nav.Card, 0, len(cards))
		for _, card := range cards {
			items = append(items, nav.Card{ID: card.ID, ListID: card.ListID, Title: card.Title})
		}
		navCards[listID] = items
	}
	m.cursor.SetBoard(navLists, navCards)
	if sink := m.navEvents; sink.selectedSet {
		if sink.selected != nil {
			m.selectedCardID = sink.selected.ID
		} else {
			m.selectedCardID = ""
		}
		sink.reset()
	}
}

// remoteListToNav converts one backend list for the cursor.
func remoteListToNav(list remote.ListRecord) nav.List {
	return nav.List{ID: list.ID, Title: list.Title}
}

// focusedCardRecord resolves the cursor's card against the snapshot.
func (m Model) focusedCardRecord() (remote.CardRecord, bool) {
	focused := m.cursor.FocusedCard()
	if focused == nil {
		return remote.CardRecord{}, false
	}
	for _, card := range m.cardsByList[focused.ListID] {
		if card.ID == focused.ID {
			return card, true
		}
	}
	return remote.CardRecord{}, false
}

// yankFocusedCard copies the focused card's title and id to the clipboard.
func (m Model) yankFocusedCard() (tea.Model, tea.Cmd) {
	card, ok := m.focusedCardRecord()
	if !ok {
		m.status = "no card focused"
		return m, nil
	}
	if err := m.writeClipboard(fmt.Sprintf("%s (%s)", card.Title, card.ID)); err != nil {
		m.status = "clipboard unavailable: " + err.Error()
		return m, nil
	}
	m.status = "yanked: " + card.Title
	return m, nil
}

// deleteFocusedCard submits a delete for the card under the cursor.
func (m Model) deleteFocusedCard() (tea.Model, tea.Cmd) {
	card, ok := m.focusedCardRecord()
	if !ok {
		m.status = "no card focused"
		return m, nil
	}
	return m, func() tea.Msg {
		err := m.svc.DeleteCard(context.Background(), card.ID)
		if app.Queued(err) {
			return actionMsg{status: "delete queued for sync"}
		}
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "card deleted", reload: true}
	}
}

// moveFocusedCard moves the focused card one list left or right.
func (m Model) moveFocusedCard(delta int) (tea.Model, tea.Cmd) {
	card, ok := m.focusedCardRecord()
	if !ok {
		m.status = "no card focused"
		return m, nil
	}
	targetIdx := m.cursor.ListIndex() + delta
	if targetIdx < 0 || targetIdx >= len(m.lists) {
		m.status = "no list in that direction"
		return m, nil
	}
	target := m.lists[targetIdx]
	position := len(m.cardsByList[target.ID])
	return m, m.moveCard(card.ID, target.ID, position)
}

// loadBoard fetches the active board, or the first available one.
func (m Model) loadBoard() tea.Msg {
	ctx := context.Background()
	boardID := m.boardID
	var boards []remote.BoardRecord
	if boardID == "" {
		listed, err := m.svc.Boards(ctx)
		if err != nil {
			return boardLoadedMsg{err: err}
		}
		if len(listed) == 0 {
			return boardLoadedMsg{err: fmt.Errorf("no boards on server")}
		}
		boards = listed
		boardID = listed[0].ID
	}
	view, err := m.svc.Board(ctx, boardID)
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	return boardLoadedMsg{view: view, boards: boards}
}

// createCard submits a new card on the focused list.
func (m Model) createCard(title string) tea.Cmd {
	list, ok := m.cursor.FocusedList()
	if !ok {
		return func() tea.Msg { return actionMsg{status: "no list focused"} }
	}
	boardID := m.boardID
	position := len(m.cardsByList[list.ID])
	return func() tea.Msg {
		_, err := m.svc.CreateCard(context.Background(), app.CreateCardInput{
			BoardID:  boardID,
			ListID:   list.ID,
			Position: position,
			Title:    title,
		})
		if app.Queued(err) {
			return actionMsg{status: "card queued for sync"}
		}
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "card created", reload: true}
	}
}

// moveCard submits a card move.
func (m Model) moveCard(cardID, listID string, position int) tea.Cmd {
	return func() tea.Msg {
		_, err := m.svc.MoveCard(context.Background(), cardID, listID, position)
		if app.Queued(err) {
			return actionMsg{status: "move queued for sync"}
		}
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "card moved", reload: true}
	}
}

// waitForToast receives the next queued notification.
func (m Model) waitForToast() tea.Cmd {
	if m.toasts == nil {
		return nil
	}
	ch := m.toasts.ch
	return func() tea.Msg {
		return <-ch
	}
}

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.viewContent())
	v.AltScreen = true
	return v
}

// viewContent renders the full frame as plain styled text.
func (m Model) viewContent() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry, q to quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	header := titleStyle.Render("tavla") + "  " + m.view.Snapshot.Board.Title
	if m.view.FromCache {
		header += statusStyle.Render("  [cached " + m.view.FetchedAt.Local().Format("15:04") + "]")
	}
	if m.cursor.Navigating() {
		header += statusStyle.Render("  [navigating]")
	}

	body := m.renderColumns(accent, muted, dim)
	statusLine := m.renderStatusLine(muted, dim)
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	sections := []string{header, "", body, statusLine, helpLine}
	content := strings.Join(sections, "\n")
	if overlay := m.renderOverlay(accent, muted, dim); overlay != "" {
		content = content + "\n" + overlay
	}
	return content
}

// renderColumns renders each list as a bordered column.
func (m Model) renderColumns(accent, muted, dim color) string {
	if len(m.lists) == 0 {
		return lipgloss.NewStyle().Foreground(muted).Render("no lists on this board")
	}

	colWidth := 28
	if m.width > 0 {
		colWidth = clampInt(m.width/max(1, len(m.lists))-4, 18, 40)
	}
	baseCol := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		MarginRight(1).
		Width(colWidth)
	selCol := baseCol.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	cardStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	focusedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(muted)

	columns := make([]string, 0, len(m.lists))
	for _, list := range m.lists {
		cards := m.cardsByList[list.ID]
		lines := []string{colTitle.Render(fmt.Sprintf("%s (%d)", list.Title, len(cards)))}
		if len(cards) == 0 {
			lines = append(lines, subStyle.Render("(empty)"))
		}
		for _, card := range cards {
			prefix := "  "
			style := cardStyle
			if m.cursor.IsCardFocused(card.ID) {
				prefix = "│ "
				style = focusedStyle
			}
			lines = append(lines, style.Render(prefix+truncate(card.Title, max(1, colWidth-4))))
			if sub := m.cardSecondary(card); sub != "" {
				lines = append(lines, subStyle.Render(prefix+truncate(sub, max(1, colWidth-4))))
			}
		}
		content := strings.Join(lines, "\n")
		if m.cursor.IsListFocused(list.ID) {
			columns = append(columns, selCol.Render(content))
		} else {
			columns = append(columns, baseCol.Render(content))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

// cardSecondary builds the optional second row below a card title.
func (m Model) cardSecondary(card remote.CardRecord) string {
	parts := []string{}
	if m.showDueDate && card.DueAt != nil {
		parts = append(parts, "due "+card.DueAt.Local().Format("Jan 2"))
	}
	if m.showLabels && len(card.Labels) > 0 {
		parts = append(parts, strings.Join(card.Labels, ","))
	}
	return strings.Join(parts, " · ")
}

// renderStatusLine renders connectivity, queue depth, and the last toast.
func (m Model) renderStatusLine(muted, dim color) string {
	state := m.svc.QueueState()
	conn := "online"
	if !state.Online {
		conn = "offline"
	}
	segments := []string{conn}
	if pending := len(state.Pending); pending > 0 {
		segments = append(segments, fmt.Sprintf("%d queued", pending))
	}
	if !state.LastSyncAt.IsZero() {
		segments = append(segments, "synced "+state.LastSyncAt.Local().Format("15:04:05"))
	}
	if m.status != "" {
		segments = append(segments, m.status)
	}
	line := lipgloss.NewStyle().Foreground(muted).Render(strings.Join(segments, " · "))
	if m.toastLine != "" {
		toastStyle := lipgloss.NewStyle().Foreground(dim)
		if m.toastSeverity == "err" || m.toastSeverity == "warn" {
			toastStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		}
		line += "  " + toastStyle.Render(m.toastLine)
	}
	return line
}

// renderOverlay renders the active modal surface, if any.
func (m Model) renderOverlay(accent, muted, dim color) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2)
	headStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	mutedStyle := lipgloss.NewStyle().Foreground(muted)

	switch m.mode {
	case modeNewCard:
		list, _ := m.cursor.FocusedList()
		lines := []string{
			headStyle.Render("New card in " + list.Title),
			m.titleInput.View(),
			mutedStyle.Render("enter save · esc cancel"),
		}
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeCardDetail:
		card, ok := m.focusedCardRecord()
		if !ok {
			return ""
		}
		lines := []string{headStyle.Render(card.Title)}
		meta := []string{"id " + card.ID}
		if card.DueAt != nil {
			meta = append(meta, "due "+card.DueAt.Local().Format("2006-01-02 15:04"))
		}
		if len(card.Labels) > 0 {
			meta = append(meta, strings.Join(card.Labels, ", "))
		}
		lines = append(lines, mutedStyle.Render(strings.Join(meta, " · ")))
		if card.Description != "" {
			renderer := m.markdown
			lines = append(lines, "", renderer.render(card.Description, max(24, m.width-12)))
		}
		lines = append(lines, "", mutedStyle.Render("esc close · y yank"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeBoardPicker:
		lines := []string{headStyle.Render("Boards")}
		for idx, board := range m.boards {
			prefix := "  "
			if idx == m.boardIndex {
				prefix = "│ "
			}
			lines = append(lines, prefix+board.Title)
		}
		lines = append(lines, "", mutedStyle.Render("enter open · esc close"))
		return boxStyle.Render(strings.Join(lines, "\n"))

	case modeQueueInfo:
		state := m.svc.QueueState()
		lines := []string{headStyle.Render("Offline queue")}
		if len(state.Pending) == 0 {
			lines = append(lines, mutedStyle.Render("nothing queued"))
		}
		for _, record := range state.Pending {
			lines = append(lines, fmt.Sprintf("%s  (retries %d)", record.Description, record.Retries))
		}
		lines = append(lines, "", mutedStyle.Render("esc close"))
		return boxStyle.Render(strings.Join(lines, "\n"))
	}
	return ""
}

// color aliases the lipgloss color value used across render helpers.
type color = stdcolor.Color

// truncate shortens a string for column rendering.
func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	if width <= 1 {
		return s[:width]
	}
	return s[:width-1] + "…"
}

// clampInt fits v into [low, high].
func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
