package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"go.heapstore/internal/config"
	"go.heapstore/internal/logger"
	"go.heapstore/internal/storage"
)

const heapFileExt = ".hf"

// Open starts a persistent storage manager in cfg.DataDir, logging to
// cfg.LogDir.
func Open(cfg *config.Config) (*StorageManager, error) {
	logPath := filepath.Join(cfg.LogDir, "heapstore.log")

	logFile, lErr := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0666)
	if lErr != nil {
		return nil, fmt.Errorf("failed to open log file: %w", lErr)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	sm, err := New(cfg.DataDir, logger.New(logFile, level))
	if err != nil {
		logFile.Close()
		return nil, err
	}

	sm.logFile = logFile
	return sm, nil
}

// New opens the storage root, creating it on first use and rebuilding the
// container map from its catalog otherwise. Data outlives the process.
func New(root string, log *logger.Logger) (*StorageManager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &storage.IOError{Op: "abs", Path: root, Err: err}
	}
	root = abs

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, &storage.IOError{Op: "mkdir", Path: root, Err: err}
	}

	sm := newStorageManager(root, false, log)
	if err := sm.loadCatalog(); err != nil {
		_ = sm.forEachFile(func(hf *storage.HeapFile) error {
			return hf.Close()
		})
		return nil, err
	}
	return sm, nil
}

// NewTestSM returns a manager in a fresh temporary directory. Shutdown
// deletes the directory and everything in it.
func NewTestSM() (*StorageManager, error) {
	root, err := os.MkdirTemp("", "heapstore-*")
	if err != nil {
		return nil, &storage.IOError{Op: "mkdir", Path: os.TempDir(), Err: err}
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	log := logger.Discard()
	log.Debugf("engine: temporary storage manager at %s", root)
	return newStorageManager(root, true, log), nil
}
