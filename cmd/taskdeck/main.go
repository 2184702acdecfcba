package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/avens/taskdeck/internal/api"
	"github.com/avens/taskdeck/internal/auth"
	"github.com/avens/taskdeck/internal/board"
	"github.com/avens/taskdeck/internal/cache"
	"github.com/avens/taskdeck/internal/config"
	"github.com/avens/taskdeck/internal/domain"
	"github.com/avens/taskdeck/internal/tui"
)

var (
	// CLI flags
	configDirFlag string
	endpointFlag  string
	projectFlag   string
	sprintFlag    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "taskdeck",
		Short: "Terminal kanban board for the work-item service",
		Long: `taskdeck is a terminal kanban board client.

Cards move between columns with the keyboard or by mouse drag; moves are
applied instantly and reconciled with the service in the background.

Authentication:
  Set TASKDECK_TOKEN, or put 'token' in taskdeck.yaml.`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&configDirFlag, "config-dir", "", "Directory containing taskdeck.yaml.")
	rootCmd.Flags().StringVar(&endpointFlag, "endpoint", "", "GraphQL endpoint of the work-item service.")
	rootCmd.Flags().StringVar(&projectFlag, "project", "", "Project ID to open.")
	rootCmd.Flags().StringVar(&sprintFlag, "sprint", "", "Sprint ID within the project. Empty opens the whole backlog.")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configDirFlag)
	if err != nil {
		return err
	}

	// Flags override the config file and environment.
	if endpointFlag != "" {
		cfg.Endpoint = endpointFlag
	}
	if projectFlag != "" {
		cfg.ProjectID = projectFlag
	}
	if sprintFlag != "" {
		cfg.SprintID = sprintFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	token, err := auth.GetToken(cfg.Token)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	log := logrus.New()
	_ = os.MkdirAll(filepath.Dir(cfg.LogPath), 0o700)
	if f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
		defer f.Close()
		log.SetOutput(f)
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetOutput(os.Stderr)
	}

	client := api.New(cfg.Endpoint, token)

	scope := domain.Scope{ProjectID: cfg.ProjectID, SprintID: cfg.SprintID}
	store := board.NewStore()
	store.SetScope(scope)

	dispatcher := board.NewDispatcher(client, log)
	engine := board.NewEngine(store, client, dispatcher, log)

	snapshots, err := cache.Open(cfg.CachePath)
	if err != nil {
		// Offline snapshots are a convenience; the board works without them.
		log.WithError(err).Warn("snapshot cache unavailable")
		snapshots = nil
	} else {
		defer snapshots.Close()
	}

	ctx := context.Background()
	app := tui.NewAppModel(client, store, engine, snapshots, log, ctx)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}

	return nil
}
