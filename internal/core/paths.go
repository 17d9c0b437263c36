package core

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "qline"

type Paths struct {
	DataDir         string
	LogFile         string
	HistoryFile     string
	PreferencesFile string
}

// DefaultDataDir is ~/.local/share/qline.
func DefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", appName), nil
}

// NewPaths lays out the program files under dataDir, creating it if needed.
// An empty dataDir means DefaultDataDir.
func NewPaths(dataDir string) (*Paths, error) {
	if dataDir == "" {
		var err error
		if dataDir, err = DefaultDataDir(); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	return &Paths{
		DataDir:         dataDir,
		LogFile:         filepath.Join(dataDir, appName+".log"),
		HistoryFile:     filepath.Join(dataDir, "history.db"),
		PreferencesFile: filepath.Join(dataDir, "preferences.yaml"),
	}, nil
}
