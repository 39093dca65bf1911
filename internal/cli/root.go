package cli

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/cmlabs-hris/hris-portal-go/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by the portal and gateway commands.
type RootOptions struct {
	Verbose bool

	// Config is loaded by the root command before any subcommand runs.
	// Tests may set it up front to bypass the environment.
	Config *config.Config
	Logger *slog.Logger

	// LogOutput defaults to stderr.
	LogOutput io.Writer
}

func (o *RootOptions) bindFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", false, "verbose output")
}

// prepare loads the configuration and sets up logging.
func (o *RootOptions) prepare(cmd *cobra.Command) error {
	if o.Config == nil {
		cfg, err := config.Load()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
		o.Config = cfg
	}
	if err := o.Config.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}

	if o.Logger == nil {
		out := o.LogOutput
		if out == nil {
			out = os.Stderr
		}
		o.Logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
			Level: o.logLevel(),
		}))
		slog.SetDefault(o.Logger)
	}
	return nil
}

func (o *RootOptions) logLevel() slog.Level {
	if o.Verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(o.Config.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
