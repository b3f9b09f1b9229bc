package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/obentoo/kpm/internal/common/config"
	"github.com/obentoo/kpm/internal/common/logger"
	"github.com/obentoo/kpm/internal/common/output"
	"github.com/obentoo/kpm/internal/common/version"
	"github.com/obentoo/kpm/internal/prompt"
	"github.com/obentoo/kpm/internal/upgrade"
	"github.com/spf13/cobra"
)

const exitInterrupted = 130

// options holds the parsed command line
type options struct {
	ignoreConnectivity bool
	installKPM         bool
	forceUpgrade       bool
	xinstall           string
	install            string
	search             string
	madison            string
	autoremove         bool
	yes                bool
	configPath         string
}

var (
	opts    options
	verbose bool
	quiet   bool
	noColor bool
)

// runError marks an error the root command has already reported
type runError struct {
	err error
}

func (e *runError) Error() string { return e.err.Error() }
func (e *runError) Unwrap() error { return e.err }

var rootCmd = &cobra.Command{
	Use:   "kpm",
	Short: "K4YT3X Package Manager",
	Long: `A wrapper around apt that upgrades the system automatically when the
upgrade removes no packages, imports missing signing keys and cleans up
unused packages and residual configuration afterwards.`,
	Version:       version.Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetVerbose(true)
		}
		if quiet {
			logger.SetQuiet(true)
		}
		if noColor {
			output.NoColor()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		err := runRoot(cmd.Context(), opts)
		report(err)
		output.PrintInfo("KPM finished")
		if err != nil {
			return &runError{err: err}
		}
		return nil
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.ignoreConnectivity, "ignore_connectivity", "i", false, "Skip the internet connectivity check")
	flags.BoolVar(&opts.installKPM, "install_kpm", false, "Install kpm to the system and exit")
	flags.BoolVar(&opts.forceUpgrade, "force_upgrade", false, "Upgrade kpm to the latest release and exit")
	flags.StringVarP(&opts.xinstall, "xinstall", "x", "", "Install packages, without questions when nothing is removed (comma separated)")
	flags.StringVar(&opts.install, "install", "", "Install packages interactively (comma separated)")
	flags.StringVarP(&opts.search, "search", "s", "", "Search for a package")
	flags.StringVarP(&opts.madison, "madison", "m", "", "Show available versions of a package")
	flags.BoolVar(&opts.autoremove, "autoremove", false, "Remove unused packages")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Answer yes to every question")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file")
	rootCmd.MarkFlagsMutuallyExclusive("xinstall", "install", "search", "madison", "autoremove", "install_kpm", "force_upgrade")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.SetVersionTemplate(version.Info() + "\n")
}

// runRoot loads the configuration, wires the real dependencies and runs kpm
func runRoot(ctx context.Context, o options) error {
	if !quiet {
		output.Banner(version.Version)
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, o)
	if err != nil {
		return err
	}
	defer logger.Default().Close()

	return a.run(ctx, o)
}

// report logs err the way the operator should see it
func report(err error) {
	switch {
	case err == nil:
	case isInterrupt(err):
		logger.Warn("Aborting")
	case errors.Is(err, upgrade.ErrAborted):
		logger.Warn("Aborted")
	default:
		logger.Error("%v", err)
	}
}

func isInterrupt(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, prompt.ErrInterrupted)
}

// exitCode maps a run result to the process exit status
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case isInterrupt(err):
		return exitInterrupted
	case errors.Is(err, upgrade.ErrAborted):
		return 0
	default:
		return 1
	}
}

func execute(ctx context.Context) int {
	err := rootCmd.ExecuteContext(ctx)
	var reported *runError
	if err != nil && !errors.As(err, &reported) {
		output.PrintError("%v", err)
	}
	return exitCode(err)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx)
	stop()
	os.Exit(code)
}
