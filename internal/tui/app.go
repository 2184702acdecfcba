package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/avens/taskdeck/internal/api"
	"github.com/avens/taskdeck/internal/board"
	"github.com/avens/taskdeck/internal/cache"
	"github.com/avens/taskdeck/internal/domain"
)

// AppScreen represents the different screens in the application flow.
type AppScreen int

const (
	ScreenLoading AppScreen = iota
	ScreenBoard
	ScreenDetail
)

// AppModel is the root Bubble Tea model that manages screen transitions:
// startup loading -> board -> item detail and back.
type AppModel struct {
	// Dependencies
	client    *api.Client
	store     *board.Store
	engine    *board.Engine
	snapshots *cache.Cache // nil disables the offline snapshot
	log       *logrus.Logger
	ctx       context.Context

	// Current state
	currentScreen AppScreen
	currentModel  tea.Model
	err           error
	loadingMsg    string

	// Cached board model to preserve state across screen transitions
	boardModel *BoardModel
}

// NewAppModel creates the root model. The store must already carry the board
// scope; viewer and project are resolved during startup.
func NewAppModel(client *api.Client, store *board.Store, engine *board.Engine, snapshots *cache.Cache, log *logrus.Logger, ctx context.Context) AppModel {
	if log == nil {
		log = logrus.New()
	}
	return AppModel{
		client:        client,
		store:         store,
		engine:        engine,
		snapshots:     snapshots,
		log:           log,
		ctx:           ctx,
		currentScreen: ScreenLoading,
		loadingMsg:    "Connecting...",
	}
}

// Init starts the bootstrap: resolve the viewer and project, and read the
// cached snapshot so the board has something to show before the fetch lands.
func (m AppModel) Init() tea.Cmd {
	return m.bootstrap()
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" && m.currentScreen != ScreenBoard {
			return m, tea.Quit
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m, tea.Quit

	case bootstrapDoneMsg:
		if msg.viewer != nil {
			m.store.SetActor(msg.viewer.ID)
		}
		if msg.project != nil {
			m.store.SetProject(msg.project)
		}
		if msg.cachedFound && m.store.Len() == 0 {
			m.store.Load(msg.cached)
		}
		return m, func() tea.Msg { return boardReadyMsg{} }

	case boardReadyMsg:
		m.currentScreen = ScreenBoard
		boardModel := NewBoardModel(m.store, m.engine, m.client, m.ctx)
		m.boardModel = &boardModel
		m.currentModel = m.boardModel
		return m, boardModel.Init()

	case itemsFetchedMsg:
		// The board consumes the result; a successful fetch also refreshes
		// the offline snapshot.
		var cmds []tea.Cmd
		if msg.err == nil && m.snapshots != nil {
			cmds = append(cmds, m.saveSnapshot(msg.items))
		}
		if m.currentModel != nil {
			var cmd tea.Cmd
			m.currentModel, cmd = m.currentModel.Update(msg)
			m.syncBoardModel()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case transitionCallDoneMsg:
		// Resolved on the board model no matter which screen is up, so a
		// call finishing behind the detail view still commits or rolls back.
		if m.boardModel == nil {
			return m, nil
		}
		model, cmd := m.boardModel.Update(msg)
		if bm, ok := model.(BoardModel); ok {
			m.boardModel = &bm
		}
		if m.currentScreen == ScreenBoard {
			m.currentModel = m.boardModel
		}
		return m, cmd

	case openDetailMsg:
		m.currentScreen = ScreenDetail
		detailModel := NewDetailModel(msg.item, m.store)
		m.currentModel = detailModel
		return m, detailModel.Init()

	case closeDetailMsg:
		m.currentScreen = ScreenBoard
		m.currentModel = m.boardModel
		return m, tea.WindowSize()
	}

	// Delegate to current screen's model
	if m.currentModel != nil {
		var cmd tea.Cmd
		m.currentModel, cmd = m.currentModel.Update(msg)
		m.syncBoardModel()
		return m, cmd
	}

	return m, nil
}

// syncBoardModel keeps the cached board model current while it is on screen.
func (m *AppModel) syncBoardModel() {
	if m.currentScreen != ScreenBoard {
		return
	}
	if bm, ok := m.currentModel.(BoardModel); ok {
		m.boardModel = &bm
	}
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}

	if m.currentModel != nil {
		return m.currentModel.View()
	}

	return m.loadingMsg + "\n\nPress Ctrl+C to quit"
}

// bootstrap resolves startup context. It never fails the app outright: a dead
// network still yields a board, backed by the cached snapshot when one exists,
// and the board's own fetch reports the error.
func (m AppModel) bootstrap() tea.Cmd {
	return func() tea.Msg {
		var out bootstrapDoneMsg

		viewer, err := m.client.FetchViewer(m.ctx)
		if err != nil {
			m.log.WithError(err).Warn("could not resolve viewer")
		} else {
			out.viewer = viewer
		}

		project, err := m.client.FetchProject(m.ctx, m.store.Scope().ProjectID)
		if err != nil {
			m.log.WithError(err).Warn("could not resolve project")
		} else {
			out.project = project
		}

		if m.snapshots != nil {
			items, found, err := m.snapshots.LoadSnapshot(m.ctx, m.store.Scope())
			if err != nil {
				m.log.WithError(err).Warn("could not read cached snapshot")
			} else if found {
				out.cached = items
				out.cachedFound = true
			}
		}

		return out
	}
}

// saveSnapshot persists the freshly fetched board for offline startup.
func (m AppModel) saveSnapshot(items []domain.WorkItem) tea.Cmd {
	scope := m.store.Scope()
	return func() tea.Msg {
		if err := m.snapshots.SaveSnapshot(m.ctx, scope, items); err != nil {
			m.log.WithError(err).Warn("could not save board snapshot")
		}
		return nil
	}
}

// bootstrapDoneMsg carries everything the startup sequence resolved.
type bootstrapDoneMsg struct {
	viewer      *domain.Collaborator
	project     *domain.Project
	cached      []domain.WorkItem
	cachedFound bool
}
