package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dosetrack/dosetrack/internal/config"
	"github.com/dosetrack/dosetrack/internal/event"
	"github.com/dosetrack/dosetrack/internal/localstore"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Date       string
	Type       string
	Count      int
	Preventive bool
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record a medicine usage event",
		Long: `Record one medicine usage event in the local store.

The event stays on this device until the next sync pass pushes it to the
remote store. A count of zero records nothing.

Example:
  dosetrack log --type rescue-inhaler --count 2
  dosetrack log --type controller-inhaler --count 1 --date 2026-02-09 --preventive`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "event date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "medicine type (rescue-inhaler|controller-inhaler)")
	cmd.Flags().IntVar(&opts.Count, "count", 1, "dose count")
	cmd.Flags().BoolVar(&opts.Preventive, "preventive", false, "dose was taken preventively")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	store, _, err := openLocalStore(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open local store", err)
	}

	date := opts.Date
	if date == "" {
		date = time.Now().Format(event.DateFormat)
	}

	ev, saved, err := store.Save(event.Event{
		Date:       date,
		Type:       event.Type(opts.Type),
		Count:      opts.Count,
		Preventive: opts.Preventive,
	})
	if err != nil {
		return WrapExitError(ExitFailure, "failed to save event", err)
	}

	if !saved {
		if opts.Format == "json" {
			return formatter.JSON(map[string]any{"saved": false})
		}
		formatter.Textf("Nothing to record: count is zero.")
		return nil
	}

	if opts.Format == "json" {
		return formatter.JSON(map[string]any{"saved": true, "event": ev})
	}
	formatter.Textf("Recorded %d × %s on %s.", ev.Count, ev.Type, ev.Date)
	return nil
}

// openLocalStore loads the config and opens the event store it points at.
func openLocalStore(opts *RootOptions) (*localstore.Store, *config.Config, error) {
	cfg, _, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	store, err := localstore.Open(cfg.DataFile, newLogger(opts))
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}
