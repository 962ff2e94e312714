package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"phototriage/internal/config"
	"phototriage/internal/logger"
	"phototriage/internal/repository/sqlite"
	"phototriage/internal/service/ledger"
)

// NewRootCmd builds the phototriage command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "phototriage",
		Short: "Capture, score and file photos from a fixed camera",
		Long: `phototriage captures a still on a fixed interval, rejects low-contrast
frames, checks the rest for faces and saves them under a name that records
the outcome, with one ledger row per saved photo.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newOnceCmd())
	rootCmd.AddCommand(newPhotosCmd())
	rootCmd.AddCommand(newOrphansCmd())

	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env is optional
	_ = godotenv.Load()
}

// openLedger opens the ledger for the read-only commands, logging to stderr.
func openLedger() (*config.Config, *ledger.Service, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	log := logger.New(os.Stderr)
	db, err := sqlite.New(cfg.DatabasePath, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, ledger.NewService(sqlite.NewPhotoRepository(db), log), func() { db.Close() }, nil
}
