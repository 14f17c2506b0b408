package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dosetrack/dosetrack/internal/syncclient"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize with the remote store",
		Long: `Run one sync pass: pull the remote collection, merge it into the local
store without duplicating doses logged on several devices, then push local
events the remote store has not seen.

Requires enrollment (see "dosetrack enroll").`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(rootOpts, cmd)
		},
	}

	return cmd
}

func runSync(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	log := newLogger(opts)

	store, cfg, err := openLocalStore(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open local store", err)
	}

	if cfg.ServerURL == "" || cfg.Token == "" {
		return WrapExitError(ExitCommandError,
			"sync is not set up on this device; run \"dosetrack enroll\" or \"dosetrack login\" first",
			nil)
	}

	client := syncclient.New(cfg.ServerURL, cfg.Token, log)
	syncer := syncclient.NewSyncer(store, client, log)

	report, err := syncer.Run(cmd.Context())
	if err != nil {
		if syncclient.IsAuthExpired(err) {
			return WrapExitError(ExitFailure,
				"credential expired; run \"dosetrack login\" to re-authenticate", err)
		}
		if errors.Is(err, syncclient.ErrSyncInProgress) {
			return WrapExitError(ExitFailure, "another sync pass is running", err)
		}
		return WrapExitError(ExitFailure, "sync pass failed", err)
	}

	if opts.Format == "json" {
		return formatter.JSON(report)
	}
	formatter.Textf("Pulled %d, merged %d duplicate(s), pushed %d (%d failed, %d rejected, %d remote record(s) rejected).",
		report.Pulled, report.Rebound, report.Pushed, report.PushFailed, report.PushRejected, report.RejectedRemote)
	return nil
}
