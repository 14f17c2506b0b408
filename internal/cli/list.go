package cli

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/dosetrack/dosetrack/internal/event"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "Show recorded events",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}

	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	store, _, err := openLocalStore(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open local store", err)
	}

	events := store.All()
	sortForDisplay(events)

	if opts.Format == "json" {
		return formatter.JSON(map[string]any{"events": events})
	}

	if len(events) == 0 {
		formatter.Textf("No events recorded.")
		return nil
	}
	for _, ev := range events {
		flag := ""
		if ev.Preventive {
			flag = "  (preventive)"
		}
		formatter.Textf("%s  %-19s ×%d%s", ev.Date, ev.Type, ev.Count, flag)
	}
	return nil
}

// sortForDisplay orders events by timestamp, oldest first. Display only;
// stored order is what reconciliation depends on and stays untouched.
func sortForDisplay(events event.Collection) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}
