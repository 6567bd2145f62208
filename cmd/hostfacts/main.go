package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/st-keller/hostfacts"
	"github.com/st-keller/hostfacts/format"
	"github.com/st-keller/hostfacts/options"
)

var (
	// Global flags
	configPath              string
	outputJSON              bool
	outputYAML              bool
	outputCBOR              bool
	showLegacy              bool
	externalDirs            []string
	noExternalFacts         bool
	structuredExternalFacts bool
	blocklist               []string
	timing                  bool
	debug                   bool
	logLevel                string

	// Resolved once per run by PersistentPreRunE
	runOptions options.Options
	logger     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hostfacts [query...]",
	Short: "Report facts about this host",
	Long: `hostfacts collects facts about the host it runs on: kernel, operating
system, memory, uptime, networking, virtualization, SSH host keys and
user supplied external facts.

Queries are dotted paths such as os.release.major or
networking.interfaces.eth0.ip. Quote a segment that contains dots:
'networking.interfaces."br.100".ip'. Without queries every fact is
printed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if runOptions, err = loadOptions(cmd); err != nil {
			return err
		}
		if logger, err = newLogger(runOptions); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: queryFacts,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the fact names that can be queried",
	Args:  cobra.NoArgs,
	RunE:  listFacts,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the hostfacts version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), hostfacts.Version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", options.DefaultConfigPath, "Configuration file")
	flags.BoolVarP(&outputJSON, "json", "j", false, "Output in JSON")
	flags.BoolVarP(&outputYAML, "yaml", "y", false, "Output in YAML")
	flags.BoolVar(&outputCBOR, "cbor", false, "Output in CBOR")
	flags.BoolVar(&showLegacy, "show-legacy", false, "Show legacy facts when querying all facts")
	flags.StringSliceVar(&externalDirs, "external-dir", nil, "External fact directory (repeatable)")
	flags.BoolVar(&noExternalFacts, "no-external-facts", false, "Disable external facts")
	flags.BoolVar(&structuredExternalFacts, "structured-external-facts", true, "Expand dotted external fact names")
	flags.StringSliceVar(&blocklist, "blocklist", nil, "Fact or fact group that is never resolved (repeatable)")
	flags.BoolVarP(&timing, "timing", "t", false, "Show how long each probe took")
	flags.BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	flags.StringVarP(&logLevel, "log-level", "l", "warn", "Log level: debug, info, warn, error")

	rootCmd.MarkFlagsMutuallyExclusive("json", "yaml", "cbor")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadOptions layers the configuration: defaults, file, environment, then
// flags the user set explicitly.
func loadOptions(cmd *cobra.Command) (options.Options, error) {
	opts, err := options.Load(configPath)
	if err != nil {
		return opts, err
	}
	opts.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("show-legacy") {
		opts.ShowLegacy = showLegacy
	}
	if flags.Changed("external-dir") {
		opts.ExternalDirs = make([]string, 0, len(externalDirs))
		for _, dir := range externalDirs {
			if abs, err := filepath.Abs(dir); err == nil {
				dir = abs
			}
			opts.ExternalDirs = append(opts.ExternalDirs, dir)
		}
	}
	if flags.Changed("no-external-facts") {
		opts.NoExternalFacts = noExternalFacts
	}
	if flags.Changed("structured-external-facts") {
		opts.StructuredExternalFacts = structuredExternalFacts
	}
	if flags.Changed("blocklist") {
		opts.Blocklist = blocklist
	}
	if flags.Changed("timing") {
		opts.Timing = timing
	}
	if flags.Changed("debug") {
		opts.Debug = debug
	}
	if flags.Changed("log-level") {
		opts.LogLevel = logLevel
	}
	if opts.Debug {
		opts.LogLevel = "debug"
	}

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// newLogger builds the stderr logger at the level the layered options
// settled on.
func newLogger(opts options.Options) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.LogLevel, err)
	}
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	return config.Build()
}

func newClient() (*hostfacts.Client, options.Options, error) {
	opts := runOptions
	client, err := hostfacts.New(hostfacts.Config{
		Options: opts,
		Logger:  logger,
	})
	if err != nil {
		return nil, opts, err
	}
	return client, opts, nil
}

func outputFormat() format.Format {
	switch {
	case outputJSON:
		return format.JSON
	case outputYAML:
		return format.YAML
	case outputCBOR:
		return format.CBOR
	}
	return format.Text
}

// queryFacts resolves the queries in args and prints the answers.
func queryFacts(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, opts, err := newClient()
	if err != nil {
		return err
	}

	result, err := client.Resolve(ctx, args...)
	if err != nil {
		return fmt.Errorf("failed to resolve facts: %w", err)
	}

	facts := map[string]any(result.Collection)
	if len(args) > 0 {
		facts = result.Values()
	}
	if err := format.Write(cmd.OutOrStdout(), outputFormat(), facts, args); err != nil {
		return err
	}

	if opts.Timing {
		printTimings(cmd.ErrOrStderr(), client)
	}
	return nil
}

func printTimings(w io.Writer, client *hostfacts.Client) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESOLVER\tCALLS\tFAILURES\tTOTAL\tMAX")
	for _, t := range client.Timings() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", t.Resolver, t.Calls, t.Failures, t.Total, t.Max)
	}
	_ = tw.Flush()
}

// listFacts prints every fact name a query can address.
func listFacts(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, name := range client.Names() {
		fmt.Fprintln(out, name)
	}
	return nil
}
