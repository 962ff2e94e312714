package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"phototriage/internal/app"
	"phototriage/internal/config"
	"phototriage/internal/logger"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Capture on the configured interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, log, err := startApp()
			if err != nil {
				return err
			}
			defer log.Close()
			defer a.Close()

			return a.Run(ctx)
		},
	}
}

func newOnceCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Perform a single capture attempt and print its outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := startApp()
			if err != nil {
				return err
			}
			defer log.Close()
			defer a.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			res := a.RunOnce(ctx)

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "%s  contrast=%.2f  face=%v  file=%s\n", res.State, res.Contrast, res.FaceDetected, res.FileName)
			}

			if res.Err != nil {
				return res.Err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func startApp() (*app.App, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.NewApp(cfg, log)
	if err != nil {
		log.Error("Failed to start: %v", err)
		log.Close()
		return nil, nil, err
	}
	return a, log, nil
}
