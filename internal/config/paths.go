package config

import (
	"os"
	"path/filepath"
)

// Allow user to set app home through env variable
// otherwise default to ~/.local/share/heapstore

func resolveHome(homeOverride string) (string, error) {
	home := homeOverride
	if home == "" {
		home = os.Getenv("HEAPSTORE_HOME")
	}

	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		home = filepath.Join(userHome, ".local", "share", "heapstore")
	}

	if err := os.MkdirAll(home, 0o755); err != nil {
		return "", err
	}
	return home, nil
}
