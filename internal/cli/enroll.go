package cli

import (
	"github.com/spf13/cobra"

	"github.com/dosetrack/dosetrack/internal/syncclient"
)

// EnrollOptions holds flags for the enroll and login commands.
type EnrollOptions struct {
	*RootOptions
	Server string
	Code   string
}

// NewEnrollCommand creates the enroll command.
func NewEnrollCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnrollOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Create a sync account on a server",
		Long: `Request a fresh account code and bearer token from a sync server and
store them in the config. The code is what you type into other devices to
attach them to the same account (see "dosetrack login").`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnroll(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Server, "server", "", "sync server base URL (required)")
	_ = cmd.MarkFlagRequired("server")

	return cmd
}

func runEnroll(opts *EnrollOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, path, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	client := syncclient.New(opts.Server, "", newLogger(opts.RootOptions))
	ctx := cmd.Context()

	code, err := client.GenerateCode(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to create account", err)
	}
	token, err := client.GenerateToken(ctx, code)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to obtain token", err)
	}

	cfg.ServerURL = opts.Server
	cfg.Code = code
	cfg.Token = token
	if err := cfg.Save(path); err != nil {
		return WrapExitError(ExitCommandError, "failed to save config", err)
	}

	if opts.Format == "json" {
		return formatter.JSON(map[string]any{"code": code})
	}
	formatter.Textf("Enrolled. Your account code is %s; use it on other devices with \"dosetrack login\".", code)
	return nil
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnrollOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Attach this device to an existing sync account",
		Long: `Exchange an account code created on another device for that account's
bearer token and store both in the config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Server, "server", "", "sync server base URL (required)")
	cmd.Flags().StringVar(&opts.Code, "code", "", "account code from the other device (required)")
	_ = cmd.MarkFlagRequired("server")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func runLogin(opts *EnrollOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, path, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	client := syncclient.New(opts.Server, "", newLogger(opts.RootOptions))
	ctx := cmd.Context()

	if err := client.Login(ctx, opts.Code); err != nil {
		return WrapExitError(ExitFailure, "login failed", err)
	}
	token, err := client.GenerateToken(ctx, opts.Code)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to obtain token", err)
	}

	cfg.ServerURL = opts.Server
	cfg.Code = opts.Code
	cfg.Token = token
	if err := cfg.Save(path); err != nil {
		return WrapExitError(ExitCommandError, "failed to save config", err)
	}

	if opts.Format == "json" {
		return formatter.JSON(map[string]any{"code": opts.Code})
	}
	formatter.Textf("Logged in. This device now syncs with account %s.", opts.Code)
	return nil
}
