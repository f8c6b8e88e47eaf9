// Package storage persists weight profiles, preferences and match results
// in a BadgerDB database.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog/log"
)

const appName = "draughtsplay"

// DataDirEnv overrides the platform data directory when set.
const DataDirEnv = "DRAUGHTSPLAY_DATA"

// GetDataDir returns the directory for the application data, creating it if
// needed. DataDirEnv wins; otherwise it is appName under:
//   - macOS: ~/Library/Application Support
//   - Windows: %APPDATA%, or ~/AppData/Roaming
//   - others: $XDG_DATA_HOME, or ~/.local/share
func GetDataDir() (string, error) {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return ensureDir(dir)
	}
	base, err := platformDataHome()
	if err != nil {
		return "", fmt.Errorf("locate data directory: %w", err)
	}
	return ensureDir(filepath.Join(base, appName))
}

// GetDatabaseDir returns the directory holding the BadgerDB files.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	dbDir, err := ensureDir(filepath.Join(dataDir, "db"))
	if err != nil {
		return "", err
	}
	log.Debug().Str("dir", dbDir).Msg("database-dir")
	return dbDir, nil
}

// platformDataHome returns the per-user data root of the running OS.
func platformDataHome() (string, error) {
	env, fallback := "XDG_DATA_HOME", []string{".local", "share"}
	switch runtime.GOOS {
	case "darwin":
		env, fallback = "", []string{"Library", "Application Support"}
	case "windows":
		env, fallback = "APPDATA", []string{"AppData", "Roaming"}
	}

	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	return dir, nil
}
