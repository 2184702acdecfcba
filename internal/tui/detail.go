package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pkg/browser"

	"github.com/avens/taskdeck/internal/board"
	"github.com/avens/taskdeck/internal/domain"
)

// Layout constants
const (
	leftPanelRatio = 0.35
	minLeftWidth   = 28
	maxLeftWidth   = 44
	borderSize     = 2 // Top + bottom border
)

var (
	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))
)

// DetailModel is the split-screen item view: metadata on the left, the
// rendered description on the right.
type DetailModel struct {
	store *board.Store
	item  *domain.WorkItem

	viewport viewport.Model

	width  int
	height int
}

// NewDetailModel creates the detail view for one item.
func NewDetailModel(item *domain.WorkItem, store *board.Store) DetailModel {
	vp := viewport.New(40, 10) // Resized on WindowSizeMsg
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	return DetailModel{
		store:    store,
		item:     item,
		viewport: vp,
	}
}

// Init initializes the detail model
func (m DetailModel) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		(&m).resizeComponents()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q", "esc", "enter":
			return m, func() tea.Msg { return closeDetailMsg{} }
		case "o":
			if m.item.URL != "" {
				_ = browser.OpenURL(m.item.URL)
			}
			return m, nil
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// resizeComponents recomputes panel dimensions and re-renders the body.
func (m *DetailModel) resizeComponents() {
	rightWidth := m.rightWidth()

	contentHeight := m.height - 1 - borderSize // header line + borders
	if contentHeight < 8 {
		contentHeight = 8
	}

	m.viewport.Width = rightWidth - borderSize - 2
	m.viewport.Height = contentHeight

	body := m.item.Description
	if strings.TrimSpace(body) == "" {
		body = DimStyle.Render("(no description)")
	} else {
		body = renderMarkdown(body, m.viewport.Width)
	}
	m.viewport.SetContent(body)
}

func (m DetailModel) leftWidth() int {
	w := int(float64(m.width) * leftPanelRatio)
	if w < minLeftWidth {
		w = minLeftWidth
	}
	if w > maxLeftWidth {
		w = maxLeftWidth
	}
	return w
}

func (m DetailModel) rightWidth() int {
	w := m.width - m.leftWidth() - 3
	if w < 30 {
		w = 30
	}
	return w
}

// View renders the detail screen
func (m DetailModel) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	header := TitleStyle.Render(m.item.Title) + "  " +
		DimStyle.Render("esc:back o:open j/k:scroll")

	contentHeight := height - 1 - borderSize
	if contentHeight < 8 {
		contentHeight = 8
	}

	left := panelBorderStyle.
		Width(m.leftWidth() - borderSize).
		Height(contentHeight).
		Padding(0, 1).
		Render(m.renderMetadata(m.leftWidth() - borderSize - 2))

	right := panelBorderStyle.
		Width(m.rightWidth() - borderSize).
		Height(contentHeight).
		Padding(0, 1).
		Render(m.viewport.View())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
	return lipgloss.JoinVertical(lipgloss.Left, header, panels)
}

// renderMetadata renders the left panel: one label/value pair per field.
func (m DetailModel) renderMetadata(width int) string {
	project := m.store.Project()

	assignee := "—"
	if m.item.AssigneeID != "" {
		assignee = m.item.AssigneeID
		if project != nil {
			assignee = project.MemberName(m.item.AssigneeID)
		}
	}

	var rows []string
	addRow := func(label, value string) {
		if value == "" {
			return
		}
		line := detailLabelStyle.Render(label+": ") + detailValueStyle.Render(value)
		rows = append(rows, wordwrap.String(line, width))
	}

	addRow("Status", m.item.Status.Label())
	addRow("Priority", string(m.item.Priority))
	addRow("Assignee", assignee)
	addRow("Due", m.item.DueDate)
	addRow("Estimate", m.item.Estimate)
	if len(m.item.Tags) > 0 {
		addRow("Tags", strings.Join(m.item.Tags, ", "))
	}
	if len(m.item.DependencyIDs) > 0 {
		addRow("Depends on", strings.Join(m.item.DependencyIDs, ", "))
	}
	addRow("Started", formatTimestamp(m.item.StartedAt))
	addRow("Completed", formatTimestamp(m.item.CompletedAt))
	addRow("Updated", formatTimestamp(m.item.UpdatedAt))

	if _, pending := m.store.PendingFor(m.item.ID); pending {
		rows = append(rows, "", WarningStyle.Render("move syncing..."))
	}

	return strings.Join(rows, "\n")
}

// formatTimestamp shortens an ISO8601 server timestamp to a local date-time,
// passing through values it cannot parse.
func formatTimestamp(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04")
}
