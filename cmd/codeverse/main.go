package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const version = "1.1.0"

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configPath string
	profile    string
	debug      bool
	logLevel   string
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "codeverse",
		Short:         "Map a source tree into a file dependency graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := opts.level()
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(newLogHandler(cmd.ErrOrStderr(), level)))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "global config file (default ~/.codeverse/config.yaml)")
	pf.StringVar(&opts.profile, "profile", "", "config profile to use (env CODEVERSE_PROFILE)")
	pf.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newInitCmd(opts),
		newAnalyzeCmd(opts),
		newServeCmd(opts),
		newQueueCmd(opts),
		newDaemonCmd(opts),
		newStatusCmd(opts),
		newListCmd(opts),
		newSimilarCmd(opts),
		newQueryCmd(opts),
		newExplainErrorCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *globalOptions) level() (slog.Level, error) {
	if o.debug {
		return slog.LevelDebug, nil
	}
	switch strings.ToLower(o.logLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", o.logLevel)
	}
}

// newLogHandler writes text to terminals and JSON everywhere else
func newLogHandler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "codeverse version %s\n", version)
		},
	}
}
