package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.heapstore/internal/auth"
	"go.heapstore/internal/config"
	"go.heapstore/internal/engine"
	"go.heapstore/internal/storage"
)

var (
	homeDir    string
	configFile string

	cfg *config.Config
	sm  *engine.StorageManager

	// set while the REPL is reading commands
	inREPL bool
)

var rootCmd = &cobra.Command{
	Use:          "heapstore",
	Short:        "heapstore - slotted page heap file storage",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if inREPL {
			return nil
		}

		inREPL = true
		startREPL(cmd)
		inREPL = false
		return nil
	},
}

// setup loads the config and opens the storage manager once per process
func setup() error {
	if sm != nil {
		return nil
	}

	var err error
	cfg, err = config.LoadConfig(homeDir, configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sm, err = engine.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	return nil
}

func teardown() error {
	if sm == nil {
		return nil
	}

	err := sm.Shutdown()
	sm = nil
	return err
}

func authenticator() (*auth.Authenticator, error) {
	fs, err := auth.NewFileStore(cfg.UserFile)
	if err != nil {
		return nil, err
	}
	return auth.NewAuthenticator(fs), nil
}

func Execute() {
	// cobra has already printed the error
	err := rootCmd.Execute()

	if tErr := teardown(); tErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", tErr)
		err = tErr
	}

	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "heapstore home directory (default $HEAPSTORE_HOME or ~/.local/share/heapstore)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config.yaml")
}

// transaction runs fn under a fresh transaction id and ends it afterwards
func transaction(fn func(tid storage.TransactionID) error) error {
	tid := storage.NewTransactionID()
	defer sm.TransactionFinished(tid)

	return fn(tid)
}
