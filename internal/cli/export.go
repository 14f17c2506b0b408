package cli

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dosetrack/dosetrack/internal/event"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "export",
		Short:         "Export events as CSV",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	store, _, err := openLocalStore(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open local store", err)
	}

	out := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeCSV(out, store.All()); err != nil {
		return WrapExitError(ExitFailure, "failed to write CSV", err)
	}
	return nil
}

// writeCSV renders the collection as CSV, one row per event, oldest first.
func writeCSV(w io.Writer, events event.Collection) error {
	sortForDisplay(events)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "type", "count", "preventive", "timestamp"}); err != nil {
		return err
	}
	for _, ev := range events {
		row := []string{
			ev.Date,
			string(ev.Type),
			strconv.Itoa(ev.Count),
			strconv.FormatBool(ev.Preventive),
			ev.Timestamp.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
