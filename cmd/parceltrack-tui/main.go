package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"parceltrack-tui/internal/app"
	"parceltrack-tui/internal/config"
	"parceltrack-tui/internal/storage"
	"parceltrack-tui/internal/track"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	barcode := flag.String("barcode", "", "tracking code to prefill in the lookup form")
	endpoint := flag.String("endpoint", "", "tracking service base URL (overrides configuration)")
	stateDirFlag := flag.String("state-dir", "", "directory for lookup snapshots (overrides configuration)")
	noReveal := flag.Bool("no-reveal", false, "disable the staggered result reveal")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if override := strings.TrimSpace(*endpoint); override != "" {
		cfg.Tracking.Endpoint = override
	}
	if override := strings.TrimSpace(*stateDirFlag); override != "" {
		cfg.Tracking.StateDir = override
	}

	stateDir, err := resolveStateDir(cfg.Tracking.StateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to resolve state directory: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewStore(stateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize snapshot storage: %v\n", err)
		os.Exit(1)
	}

	client := track.NewClient(cfg.Tracking.Endpoint, cfg.Tracking.Timeout())

	model := app.NewModelWithOptions(client, store, app.ModelOptions{
		RequestTimeout:  cfg.Tracking.Timeout(),
		RevealAnimation: cfg.UI.RevealAnimation && !*noReveal,
		InitialBarcode:  *barcode,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui exited with error: %v\n", err)
		os.Exit(1)
	}
}

// resolveStateDir expands a leading ~ and falls back to a directory under
// the working directory when the configured path is blank.
func resolveStateDir(configured string) (string, error) {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, ".parceltrack"), nil
	}
	if configured == "~" || strings.HasPrefix(configured, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", configured, err)
		}
		return filepath.Join(home, strings.TrimPrefix(configured, "~/")), nil
	}
	return filepath.Abs(configured)
}
