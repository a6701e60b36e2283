package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryankumar/netdiscover/internal/config"
	"github.com/aryankumar/netdiscover/internal/output"
	"github.com/aryankumar/netdiscover/internal/session"
	"github.com/aryankumar/netdiscover/internal/util"
)

// LevelCritical sits above slog.LevelError for --loglevel critical
const LevelCritical = slog.LevelError + 4

// Execute runs the root command with the provided context
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// deps are the collaborators the discovery command builds at run time
type deps struct {
	newSessionClient func(session.SSHConfig) session.Client
}

func defaultDeps() deps {
	return deps{
		newSessionClient: func(cfg session.SSHConfig) session.Client {
			return session.NewSSHClient(cfg)
		},
	}
}

// rootOptions holds the resolved flag values of one invocation
type rootOptions struct {
	configFile string
	device     string
	seed       string
	format     output.Format
	noColor    bool
	wide       bool
	logger     *slog.Logger
}

// newRootCmd creates the root command
func newRootCmd() *cobra.Command {
	return newRootCmdWith(defaultDeps())
}

func newRootCmdWith(d deps) *cobra.Command {
	opts := &rootOptions{}
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "netdiscover",
		Short: "netdiscover - discover network device vendors and operating systems",
		Long: `netdiscover connects to network devices over SSH, runs "show version"
and classifies each device as IOS-XR, IOS-XE, IOS or JunOS.

Results are written to a temporary SQLite database and printed when the
run finishes.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initOptions(cmd, v, opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd, opts, d)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default is $NETDISCOVER_CONFIG_FILE or $HOME/.config/netdiscover/config.json)")
	pf.StringP("loglevel", "L", "warning", "log level (debug, info, warning, error, critical)")
	pf.String("log-format", "text", "log format (text, json)")
	pf.StringP("output", "o", string(output.FormatTable), "output format (table, json, yaml)")
	pf.Bool("no-color", false, "disable colored output")
	pf.Bool("wide", false, "show worker, line count and error columns")

	rootCmd.Flags().StringVarP(&opts.device, "device", "d", "", "single device to connect to")
	rootCmd.Flags().StringVar(&opts.seed, "seed", "", "seed file of devices")
	rootCmd.MarkFlagsMutuallyExclusive("device", "seed")

	// Flags win over NETDISCOVER_* environment variables, which win over flag defaults
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.BindPFlag("log_level", pf.Lookup("loglevel"))
	v.BindPFlag("log_format", pf.Lookup("log-format"))
	v.BindPFlag("output", pf.Lookup("output"))
	v.BindPFlag("no_color", pf.Lookup("no-color"))
	v.BindPFlag("wide", pf.Lookup("wide"))

	registerFlagCompletions(rootCmd)

	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// initOptions resolves flags and environment and sets up logging
func initOptions(cmd *cobra.Command, v *viper.Viper, opts *rootOptions) error {
	level, err := parseLogLevel(v.GetString("log_level"))
	if err != nil {
		return util.NewConfigError(err)
	}

	format, err := output.ParseFormat(v.GetString("output"))
	if err != nil {
		return util.NewConfigError(err)
	}
	opts.format = format
	opts.noColor = v.GetBool("no_color")
	opts.wide = v.GetBool("wide")

	logger, err := newLogger(cmd.ErrOrStderr(), level, v.GetString("log_format"))
	if err != nil {
		return util.NewConfigError(err)
	}
	opts.logger = logger
	slog.SetDefault(logger)

	logger.Debug("logging initialised", "level", level.String())
	return nil
}

// parseLogLevel accepts the level names used by --loglevel, case-insensitive
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "critical", "fatal":
		return LevelCritical, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// newLogger builds the structured logger for the given format
func newLogger(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && len(groups) == 0 {
				if l, ok := a.Value.Any().(slog.Level); ok && l >= LevelCritical {
					a.Value = slog.StringValue("CRITICAL")
				}
			}
			return a
		},
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return slog.New(handler), nil
}
