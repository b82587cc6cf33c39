// Package commands implements CLI command handlers for docfang.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docfang/pkg/config"
	"github.com/Sumatoshi-tech/docfang/pkg/observability"
	"github.com/Sumatoshi-tech/docfang/pkg/version"
)

// stdinArg names standard input in place of a file argument.
const stdinArg = "-"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
}

// NewRootCommand builds the docfang command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "docfang",
		Short: "Convert package.html files into Javadoc package comments",
		Long: `docfang converts legacy package.html package descriptions in Java and
Kotlin source trees into Javadoc comments and package-info.java stubs.

Commands:
  extract   Print the body of an HTML document
  convert   Generate package-info.java files for a source tree
  qualify   Rewrite Javadoc references to fully-qualified names
  report    Work with JSON conversion reports
  mcp       Start the MCP server
  lsp       Start the language server
  serve     Start the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: .docfang.yaml in CWD or $HOME)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(
		newExtractCommand(),
		newConvertCommand(opts),
		newQualifyCommand(opts),
		newReportCommand(),
		newMCPCommand(opts),
		newLSPCommand(opts),
		newServeCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

// session is the loaded configuration and telemetry of one command run.
type session struct {
	cfg       *config.Config
	providers observability.Providers
}

func (o *globalOptions) open(mode observability.AppMode, logOut io.Writer) (*session, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	obsCfg := observability.ConfigFromEnv(mode, version.Version)
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.JSON || mode == observability.ModeMCP
	obsCfg.Prometheus = mode == observability.ModeServe

	switch {
	case o.verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case o.quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	providers, err := observability.InitWithWriter(obsCfg, logOut)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	return &session{cfg: cfg, providers: providers}, nil
}

func (s *session) close() {
	shutdownErr := s.providers.Shutdown(context.Background())
	if shutdownErr != nil {
		s.providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
	}
}

// readInput reads a named file, or standard input for "-" or no argument.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == stdinArg {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}

	return data, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String("docfang"))
		},
	}
}
