package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dosetrack/dosetrack/internal/event"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <date>",
		Short: "Delete all events for a date (local only)",
		Long: `Delete every event recorded for the given date on this device.

The remote store is append-only: deletions are not propagated, and a later
sync pass will pull events for the date back if another device pushed them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDelete(opts *RootOptions, date string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := time.Parse(event.DateFormat, date); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid date %q", date), err)
	}

	store, _, err := openLocalStore(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open local store", err)
	}

	removed, err := store.DeleteByDate(date)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to delete events", err)
	}

	if opts.Format == "json" {
		return formatter.JSON(map[string]any{"date": date, "removed": removed})
	}
	formatter.Textf("Removed %d event(s) for %s.", removed, date)
	return nil
}
