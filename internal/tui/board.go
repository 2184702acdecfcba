package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"

	"github.com/avens/taskdeck/internal/board"
	"github.com/avens/taskdeck/internal/domain"
)

// Layout constants
const (
	minColumnWidth = 20
	maxColumnWidth = 40
	headerLines    = 2  // Title line + hint line
	pageJumpSize   = 10 // Number of cards to jump with Ctrl+D/U
)

var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	moveModeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("39")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1)
)

// ItemFetcher loads the board's work items from the remote service.
// api.Client implements it.
type ItemFetcher interface {
	FetchBoardItems(ctx context.Context, scope domain.Scope) ([]domain.WorkItem, error)
}

// columnBand is the horizontal extent of one rendered column.
type columnBand struct {
	status domain.Status
	x0, x1 int // inclusive, exclusive
}

// cardCell is the screen row occupied by one rendered card.
type cardCell struct {
	itemID string
	x0, x1 int
	y      int
}

// boardLayout records where the last render put columns and cards, so that
// pointer coordinates can be resolved back to board elements. It is shared by
// pointer between model copies; View rebuilds it every frame.
type boardLayout struct {
	top, bottom int // board rows, inclusive, exclusive
	cols        []columnBand
	cards       []cardCell
}

func (l *boardLayout) reset(top, bottom int) {
	l.top = top
	l.bottom = bottom
	l.cols = l.cols[:0]
	l.cards = l.cards[:0]
}

// ItemAt resolves the card under the pointer.
func (l *boardLayout) ItemAt(x, y int) (string, bool) {
	for _, c := range l.cards {
		if y == c.y && x >= c.x0 && x < c.x1 {
			return c.itemID, true
		}
	}
	return "", false
}

// ColumnAt resolves the column under the pointer.
func (l *boardLayout) ColumnAt(x, y int) (domain.Status, bool) {
	if y < l.top || y >= l.bottom {
		return "", false
	}
	for _, b := range l.cols {
		if x >= b.x0 && x < b.x1 {
			return b.status, true
		}
	}
	return "", false
}

// BoardModel is the kanban board view: four status columns over the store,
// with keyboard and mouse-drag moves going through the transition engine.
type BoardModel struct {
	// Dependencies
	store  *board.Store
	engine *board.Engine
	fetch  ItemFetcher
	ctx    context.Context

	// Drag state, shared by pointer so gestures survive model copies
	layout *boardLayout
	drag   *board.DragInterpreter

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	filterInput textinput.Model

	// Board state
	columns       []domain.Status
	filteredCards map[domain.Status][]string
	selectedCol   int
	selectedCard  map[domain.Status]int
	scrollOffset  map[domain.Status]int

	// View state
	width        int
	height       int
	showHelp     bool
	filterMode   bool
	filterText   string
	filterMyOnly bool
	moveMode     bool
	loading      bool
	toast        string
	toastWarn    bool
}

// NewBoardModel creates the board view over the given store and engine.
func NewBoardModel(s *board.Store, engine *board.Engine, fetch ItemFetcher, ctx context.Context) BoardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.Prompt = "/ "

	layout := &boardLayout{}

	return BoardModel{
		store:         s,
		engine:        engine,
		fetch:         fetch,
		ctx:           ctx,
		layout:        layout,
		drag:          board.NewDragInterpreter(s, layout, board.DefaultDragThreshold),
		keymap:        DefaultKeyMap(),
		help:          NewHelpModel(DefaultKeyMap()),
		spinner:       sp,
		filterInput:   ti,
		columns:       domain.WorkflowOrder,
		filteredCards: make(map[domain.Status][]string),
		selectedCard:  make(map[domain.Status]int),
		scrollOffset:  make(map[domain.Status]int),
	}
}

// boardInitMsg triggers the initial column build.
type boardInitMsg struct{}

// Init builds the columns from whatever the store already holds (a cached
// snapshot, possibly nothing) and starts the network fetch.
func (m BoardModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tea.WindowSize(),
		func() tea.Msg { return boardInitMsg{} },
		m.fetchItems(),
	)
}

// Update handles messages
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardInitMsg:
		(&m).applyFilter()
		return m, nil

	case itemsFetchedMsg:
		m.loading = false
		if msg.err != nil {
			if m.store.Len() > 0 {
				(&m).setToast(fmt.Sprintf("Refresh failed, showing cached board: %v", msg.err), true)
			} else {
				(&m).setToast(fmt.Sprintf("Load failed: %v", msg.err), false)
			}
			return m, nil
		}
		m.store.Load(msg.items)
		(&m).applyFilter()
		return m, nil

	case transitionCallDoneMsg:
		res := m.engine.Finish(msg.pending, msg.echo, msg.err)
		(&m).applyFilter()
		if res.Message != "" {
			(&m).setToast(res.Message, res.Outcome == board.OutcomeConflict)
			return m, nil
		}
		m.toast = ""
		return m, m.notify(res)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m BoardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global quit
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	// Filter mode
	if m.filterMode {
		switch msg.String() {
		case "enter":
			m.filterMode = false
			m.filterText = m.filterInput.Value()
			(&m).applyFilter()
			return m, nil
		case "esc":
			m.filterMode = false
			m.filterInput.SetValue(m.filterText)
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			return m, cmd
		}
	}

	// Move mode
	if m.moveMode {
		return m.handleMoveMode(msg)
	}

	// Normal navigation
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
	case "/":
		m.filterMode = true
		m.filterInput.Focus()
	case "h", "left":
		if m.selectedCol > 0 {
			m.selectedCol--
		}
	case "l", "right":
		if m.selectedCol < len(m.columns)-1 {
			m.selectedCol++
		}
	case "j", "down":
		(&m).moveCardSelection(1)
	case "k", "up":
		(&m).moveCardSelection(-1)
	case "g":
		(&m).jumpToCard(0)
	case "G":
		(&m).jumpToCard(-1)
	case "ctrl+d":
		(&m).moveCardSelection(pageJumpSize)
	case "ctrl+u":
		(&m).moveCardSelection(-pageJumpSize)
	case "m":
		if m.getSelectedCard() != nil {
			m.moveMode = true
		}
	case "o":
		card := m.getSelectedCard()
		if card != nil && card.URL != "" {
			_ = browser.OpenURL(card.URL)
		}
	case "r":
		m.loading = true
		m.toast = ""
		return m, m.fetchItems()
	case "a":
		m.filterMyOnly = !m.filterMyOnly
		(&m).applyFilter()
	case "enter":
		card := m.getSelectedCard()
		if card != nil {
			return m, func() tea.Msg { return openDetailMsg{item: card} }
		}
	}

	return m, nil
}

// handleMoveMode handles key presses in move mode
func (m BoardModel) handleMoveMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "m":
		m.moveMode = false
		return m, nil
	case "1", "2", "3", "4":
		idx := int(msg.Runes[0] - '1')
		if idx >= 0 && idx < len(m.columns) {
			m.moveMode = false
			card := m.getSelectedCard()
			if card == nil {
				return m, nil
			}
			cmd := (&m).beginTransition(domain.TransitionIntent{
				ItemID: card.ID,
				From:   card.Status,
				To:     m.columns[idx],
			})
			return m, cmd
		}
	}
	return m, nil
}

// handleMouse feeds pointer events into the drag interpreter and starts a
// transition when a drag drops on another column.
func (m BoardModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.showHelp || m.filterMode {
		return m, nil
	}

	ev := board.PointerEvent{X: msg.X, Y: msg.Y}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		ev.Kind = board.PointerPress
		(&m).selectAt(msg.X, msg.Y)
	case tea.MouseActionMotion:
		ev.Kind = board.PointerMove
	case tea.MouseActionRelease:
		ev.Kind = board.PointerRelease
	default:
		return m, nil
	}

	if intent := m.drag.Handle(ev); intent != nil {
		cmd := (&m).beginTransition(*intent)
		return m, cmd
	}
	return m, nil
}

// beginTransition opens the transition, applies the optimistic move, and
// returns the command that performs the remote call. The gate and no-op
// checks happen here, before any network traffic.
func (m *BoardModel) beginTransition(intent domain.TransitionIntent) tea.Cmd {
	p, err := m.engine.Begin(intent)
	if err != nil {
		switch {
		case errors.Is(err, board.ErrNoChange):
			// Dropping a card on its own column is not a move.
		case errors.Is(err, board.ErrTransitionInFlight):
			m.setToast("A move for this card is still syncing", true)
		default:
			m.setToast(fmt.Sprintf("Move failed: %v", err), false)
		}
		return nil
	}

	m.applyFilter()
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		echo, callErr := engine.Call(ctx, p)
		return transitionCallDoneMsg{pending: p, echo: echo, err: callErr}
	}
}

// notify sends the confirmation mention off the event loop.
func (m BoardModel) notify(res board.Resolution) tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		engine.Notify(ctx, res)
		return nil
	}
}

// fetchItems loads the full board for the current scope.
func (m BoardModel) fetchItems() tea.Cmd {
	fetch, ctx, scope := m.fetch, m.ctx, m.store.Scope()
	return func() tea.Msg {
		items, err := fetch.FetchBoardItems(ctx, scope)
		return itemsFetchedMsg{items: items, err: err}
	}
}

// setToast shows a transient status-line message. warn selects the warning
// palette instead of the error one.
func (m *BoardModel) setToast(text string, warn bool) {
	m.toast = text
	m.toastWarn = warn
}

// selectAt moves the selection to the card under the pointer, if any.
func (m *BoardModel) selectAt(x, y int) {
	itemID, ok := m.layout.ItemAt(x, y)
	if !ok {
		return
	}
	for colIdx, status := range m.columns {
		for cardIdx, id := range m.filteredCards[status] {
			if id == itemID {
				m.selectedCol = colIdx
				m.selectedCard[status] = cardIdx
				return
			}
		}
	}
}

// View renders the board - fills the terminal exactly
func (m BoardModel) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	var sections []string
	sections = append(sections, m.renderHeader(width))
	sections = append(sections, m.renderSecondHeader(width))

	if m.filterMode {
		sections = append(sections, m.filterInput.View())
	}
	if m.moveMode {
		moveBar := moveModeStyle.Render("MOVE") + " Press 1-4 to pick a column, ESC to cancel"
		sections = append(sections, moveBar)
	}

	boardTop := headerLines
	boardHeight := height - headerLines
	if m.filterMode {
		boardTop++
		boardHeight--
	}
	if m.moveMode {
		boardTop++
		boardHeight--
	}
	if boardHeight < 5 {
		boardHeight = 5
	}

	var mainContent string
	switch {
	case m.showHelp:
		m.layout.reset(0, 0)
		helpLines := strings.Split(m.help.View(width), "\n")
		if len(helpLines) > boardHeight {
			helpLines = helpLines[:boardHeight]
		}
		mainContent = strings.Join(helpLines, "\n")
	case m.loading && m.store.Len() == 0:
		m.layout.reset(0, 0)
		loadingMsg := m.spinner.View() + " Loading board..."
		mainContent = lipgloss.Place(width, boardHeight, lipgloss.Center, lipgloss.Center, loadingMsg)
	default:
		mainContent = m.renderBoard(width, boardHeight, boardTop)
	}
	sections = append(sections, mainContent)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title line: project on the left, status on the right.
func (m BoardModel) renderHeader(width int) string {
	title := "taskdeck"
	if p := m.store.Project(); p != nil {
		title = p.Name
	}
	if sprint := m.store.Scope().SprintID; sprint != "" {
		title += " / " + sprint
	}

	var statusParts []string
	if m.loading {
		statusParts = append(statusParts, m.spinner.View()+"loading")
	}
	if n := m.store.PendingCount(); n > 0 {
		statusParts = append(statusParts, fmt.Sprintf("%d syncing", n))
	}
	total := 0
	for _, cards := range m.filteredCards {
		total += len(cards)
	}
	statusParts = append(statusParts, fmt.Sprintf("%d items", total))
	if m.filterMyOnly {
		statusParts = append(statusParts, "@me")
	}
	if m.filterText != "" {
		statusParts = append(statusParts, "/"+m.filterText)
	}
	statusParts = append(statusParts, "[?]help")

	status := strings.Join(statusParts, " | ")

	padding := width - lipgloss.Width(title) - lipgloss.Width(status) - 2
	if padding < 1 {
		padding = 1
	}
	return TitleStyle.Render(title) + strings.Repeat(" ", padding) + DimStyle.Render(status)
}

// renderSecondHeader renders navigation hints on the left and the toast or
// position info on the right.
func (m BoardModel) renderSecondHeader(width int) string {
	left := "h/l:col j/k:card m:move o:open r:refresh enter:view"

	right := ""
	switch {
	case m.toast != "" && m.toastWarn:
		right = WarningStyle.Render(m.toast)
	case m.toast != "":
		right = ErrorStyle.Render(m.toast)
	case len(m.columns) > 0:
		status := m.columns[m.selectedCol]
		cards := m.filteredCards[status]
		if len(cards) > 0 {
			right = fmt.Sprintf("card %d/%d", m.selectedCard[status]+1, len(cards))
		}
	}

	padding := width - len(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return DimStyle.Render(left) + strings.Repeat(" ", padding) + right
}

// renderBoard renders the four status columns side by side and records their
// geometry for pointer hit testing.
func (m BoardModel) renderBoard(totalWidth, totalHeight, top int) string {
	numCols := len(m.columns)
	if numCols == 0 {
		return ""
	}

	colContentHeight := totalHeight - 2 // lipgloss border adds 2 lines
	if colContentHeight < 3 {
		colContentHeight = 3
	}

	colWidth := totalWidth / numCols
	if colWidth > maxColumnWidth {
		colWidth = maxColumnWidth
	}
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	innerWidth := colWidth - 4 // border + padding
	if innerWidth < 10 {
		innerWidth = 10
	}

	m.layout.reset(top, top+colContentHeight+2)

	columnViews := make([]string, 0, numCols)
	for i, status := range m.columns {
		x0 := i * colWidth
		m.layout.cols = append(m.layout.cols, columnBand{status: status, x0: x0, x1: x0 + colWidth})
		columnViews = append(columnViews,
			m.renderColumn(status, i == m.selectedCol, colWidth, colContentHeight, innerWidth, i+1, x0, top))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// renderColumn renders one column and records the row of every visible card.
func (m BoardModel) renderColumn(status domain.Status, selected bool, width, innerHeight, innerWidth, colNum, x0, top int) string {
	cards := m.filteredCards[status]

	headerText := fmt.Sprintf("[%d] %s (%d)", colNum, status.Label(), len(cards))
	if len(headerText) > innerWidth {
		headerText = headerText[:innerWidth-1] + "…"
	}

	scrollOffset := m.scrollOffset[status]
	selectedIdx := m.selectedCard[status]

	cardSlots := innerHeight - 1 // header line
	if cardSlots < 1 {
		cardSlots = 1
	}

	needUpIndicator := scrollOffset > 0
	availableSlots := cardSlots
	if needUpIndicator {
		availableSlots--
	}
	endIdx := scrollOffset + availableSlots
	needDownIndicator := false
	if endIdx < len(cards) {
		needDownIndicator = true
		availableSlots--
		endIdx = scrollOffset + availableSlots
	}
	if endIdx > len(cards) {
		endIdx = len(cards)
	}

	var lines []string
	lines = append(lines, columnHeaderStyle.Render(headerText))

	if needUpIndicator {
		lines = append(lines, DimStyle.Render(fmt.Sprintf("↑ %d more", scrollOffset)))
	}

	dragged, dragging := m.drag.DraggedItem()
	for i := scrollOffset; i < endIdx; i++ {
		cardID := cards[i]
		card, err := m.store.Item(cardID)
		if err != nil {
			continue
		}

		// Content row inside the border: +1 for the top border line.
		y := top + 1 + len(lines)
		m.layout.cards = append(m.layout.cards, cardCell{itemID: cardID, x0: x0, x1: x0 + width, y: y})

		cardText := m.formatCardText(card, innerWidth-2)
		switch {
		case dragging && cardID == dragged:
			lines = append(lines, SelectedItemStyle.Render("◆ "+cardText))
		case selected && i == selectedIdx:
			lines = append(lines, SelectedItemStyle.Render("> "+cardText))
		default:
			lines = append(lines, NormalItemStyle.Render("  "+cardText))
		}
	}

	if remaining := len(cards) - endIdx; needDownIndicator && remaining > 0 {
		lines = append(lines, DimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}
	if len(cards) == 0 {
		lines = append(lines, DimStyle.Render("(empty)"))
	}

	content := strings.Join(lines, "\n")

	borderColor := lipgloss.Color("240")
	if candidate, ok := m.drag.Candidate(); ok && candidate == status {
		borderColor = lipgloss.Color("214")
	} else if selected {
		borderColor = lipgloss.Color("39")
	}

	colStyle := lipgloss.NewStyle().
		Width(width - 2).
		Height(innerHeight).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor)

	return colStyle.Render(content)
}

// formatCardText formats a card title with a right-aligned marker: a sync
// marker while a move is in flight, otherwise the priority for items that
// carry an urgent or high one.
func (m BoardModel) formatCardText(card *domain.WorkItem, maxWidth int) string {
	title := card.Title

	suffix := ""
	if _, pending := m.store.PendingFor(card.ID); pending {
		suffix = "(sync)"
	} else if card.Priority == domain.PriorityUrgent || card.Priority == domain.PriorityHigh {
		suffix = "!" + string(card.Priority)
	}

	if suffix == "" {
		if len(title) > maxWidth {
			title = title[:maxWidth-1] + "…"
		}
		return title
	}

	availableForTitle := maxWidth - len(suffix) - 1
	if availableForTitle < 5 {
		availableForTitle = 5
	}
	if len(title) > availableForTitle {
		title = title[:availableForTitle-1] + "…"
	}

	padding := maxWidth - len(title) - len(suffix)
	if padding < 1 {
		padding = 1
	}
	return title + strings.Repeat(" ", padding) + DimStyle.Render(suffix)
}

// applyFilter regroups the store's columns through the text and assignee
// filters.
func (m *BoardModel) applyFilter() {
	storeColumns := m.store.Columns()
	m.filteredCards = make(map[domain.Status][]string)

	actor := m.store.Actor()
	needle := strings.ToLower(m.filterText)

	for _, status := range m.columns {
		filtered := make([]string, 0, len(storeColumns[status]))
		for _, itemID := range storeColumns[status] {
			item, err := m.store.Item(itemID)
			if err != nil {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(item.Title), needle) {
				continue
			}
			if m.filterMyOnly && actor != "" && item.AssigneeID != actor {
				continue
			}
			filtered = append(filtered, itemID)
		}
		m.filteredCards[status] = filtered
	}

	// Clamp selection and scroll so a shrunk column never points past its end.
	for _, status := range m.columns {
		m.scrollOffset[status] = 0
		if n := len(m.filteredCards[status]); m.selectedCard[status] >= n {
			if n > 0 {
				m.selectedCard[status] = n - 1
			} else {
				m.selectedCard[status] = 0
			}
		}
	}
}

// moveCardSelection moves the card selection up or down by delta
func (m *BoardModel) moveCardSelection(delta int) {
	status := m.columns[m.selectedCol]
	cards := m.filteredCards[status]
	if len(cards) == 0 {
		return
	}

	newIdx := m.selectedCard[status] + delta
	if newIdx < 0 {
		newIdx = 0
	}
	if newIdx >= len(cards) {
		newIdx = len(cards) - 1
	}
	m.selectedCard[status] = newIdx
	m.adjustScroll(status)
}

// jumpToCard jumps to a card index in the current column. -1 means last.
func (m *BoardModel) jumpToCard(idx int) {
	status := m.columns[m.selectedCol]
	cards := m.filteredCards[status]
	if len(cards) == 0 {
		return
	}

	if idx < 0 || idx >= len(cards) {
		idx = len(cards) - 1
	}
	m.selectedCard[status] = idx
	m.adjustScroll(status)
}

// adjustScroll keeps the selected card visible.
func (m *BoardModel) adjustScroll(status domain.Status) {
	selectedIdx := m.selectedCard[status]
	scrollOffset := m.scrollOffset[status]

	contentHeight := m.height - headerLines - 2
	if m.moveMode {
		contentHeight--
	}
	if m.filterMode {
		contentHeight--
	}
	visibleCards := contentHeight - 3 // header + scroll indicators
	if visibleCards < 3 {
		visibleCards = 3
	}

	if selectedIdx < scrollOffset {
		m.scrollOffset[status] = selectedIdx
	}
	if selectedIdx >= scrollOffset+visibleCards {
		m.scrollOffset[status] = selectedIdx - visibleCards + 1
	}
}

// getSelectedCard returns the currently selected card, or nil.
func (m BoardModel) getSelectedCard() *domain.WorkItem {
	status := m.columns[m.selectedCol]
	cards := m.filteredCards[status]
	if len(cards) == 0 {
		return nil
	}

	idx := m.selectedCard[status]
	if idx >= len(cards) {
		idx = 0
	}
	card, err := m.store.Item(cards[idx])
	if err != nil {
		return nil
	}
	return card
}
