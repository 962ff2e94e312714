package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"phototriage/internal/service/storage"
)

// ErrInconsistent is returned by orphans when the directory and ledger disagree.
var ErrInconsistent = errors.New("image directory and ledger disagree")

func newPhotosCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "photos",
		Short: "List the photos recorded in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, closeDB, err := openLedger()
			if err != nil {
				return err
			}
			defer closeDB()

			photos, err := svc.Photos()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(photos)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFACE\tRECORDED\tFILE")
			for _, p := range photos {
				face := "?"
				if hasFace, _, err := storage.ParseName(p.FilePath); err == nil {
					face = fmt.Sprintf("%v", hasFace)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, face, p.Timestamp, p.FilePath)
			}
			fmt.Fprintf(w, "\n%d photo(s)\n", len(photos))
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newOrphansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "Compare the image directory with the ledger",
		Long: `Lists saved images with no ledger row and ledger rows whose image is
missing. Nothing is repaired. Exits non-zero when any are found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, svc, closeDB, err := openLedger()
			if err != nil {
				return err
			}
			defer closeDB()

			report, err := svc.Reconcile(cfg.ImageDirectory)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d file(s), %d row(s)\n", report.Files, report.Rows)
			for _, name := range report.FilesWithoutRows {
				fmt.Fprintf(out, "file without row: %s\n", name)
			}
			for _, name := range report.RowsWithoutFiles {
				fmt.Fprintf(out, "row without file: %s\n", name)
			}
			for _, name := range report.PartialWrites {
				fmt.Fprintf(out, "partial write: %s\n", name)
			}

			if !report.Consistent() {
				return ErrInconsistent
			}
			return nil
		},
	}
}
