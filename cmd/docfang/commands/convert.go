package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docfang/pkg/cache"
	"github.com/Sumatoshi-tech/docfang/pkg/config"
	"github.com/Sumatoshi-tech/docfang/pkg/convert"
	"github.com/Sumatoshi-tech/docfang/pkg/gitlib"
	"github.com/Sumatoshi-tech/docfang/pkg/javadoc"
	"github.com/Sumatoshi-tech/docfang/pkg/observability"
	"github.com/Sumatoshi-tech/docfang/pkg/report"
	"github.com/Sumatoshi-tech/docfang/pkg/safeconv"
	"github.com/Sumatoshi-tech/docfang/pkg/scan"
)

// ErrConflicts is returned when a run left existing package-info.java
// files untouched because of the error conflict policy.
var ErrConflicts = errors.New("conversion finished with conflicts")

// ConvertCommand holds the flags of the convert command.
type ConvertCommand struct {
	global *globalOptions

	dryRun     bool
	policy     string
	outDir     string
	format     string
	since      string
	workers    int
	wrapWidth  int
	include    []string
	exclude    []string
	headerFile string
	noCache    bool
}

func newConvertCommand(global *globalOptions) *cobra.Command {
	cc := &ConvertCommand{global: global}

	cmd := &cobra.Command{
		Use:   "convert [root]",
		Short: "Generate package-info.java files for a source tree",
		Long: `Scan a Java/Kotlin source tree and convert every package.html into a
package-info.java carrying the same documentation as a Javadoc comment.

Existing package-info.java files are handled by the conflict policy:
  error      leave the file and report a conflict (exit status 1)
  merge      append the text to the existing package comment
  overwrite  replace the file`,
		Args: cobra.MaximumNArgs(1),
		RunE: cc.run,
	}

	cmd.Flags().BoolVarP(&cc.dryRun, "dry-run", "n", false, "Report what would change without writing; diffs are included")
	cmd.Flags().StringVar(&cc.policy, "policy", "", "Conflict policy: error, merge, overwrite (default from config)")
	cmd.Flags().StringVarP(&cc.outDir, "out", "o", "", "Write stubs into this directory tree instead of next to package.html")
	cmd.Flags().StringVarP(&cc.format, "format", "f", "", "Report format: text, json, yaml (default from config)")
	cmd.Flags().StringVar(&cc.since, "since", "", "Only convert package.html files changed since this git revision")
	cmd.Flags().IntVar(&cc.workers, "workers", 0, "Number of parallel workers (0 = use CPU count)")
	cmd.Flags().IntVar(&cc.wrapWidth, "wrap", 0, "Wrap comment lines at this column (0 = no wrapping)")
	cmd.Flags().StringSliceVar(&cc.include, "include", nil, "Only consider files matching these globs")
	cmd.Flags().StringSliceVar(&cc.exclude, "exclude", nil, "Skip files and directories matching these globs")
	cmd.Flags().StringVar(&cc.headerFile, "header-file", "", "File whose contents are placed above each generated comment")
	cmd.Flags().BoolVar(&cc.noCache, "no-cache", false, "Disable the comment cache")

	return cmd
}

func (cc *ConvertCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := cc.global.open(observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close()

	cc.applyConfig(cmd, sess.cfg)

	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	ctx := cmd.Context()
	logger := sess.providers.Logger

	format, err := report.ParseFormat(cc.format)
	if err != nil {
		return err
	}

	policy, err := convert.ParseConflictPolicy(cc.policy)
	if err != nil {
		return err
	}

	scanOpts, err := cc.scanOptions(root, sess.cfg)
	if err != nil {
		return err
	}

	dirs, err := scan.Walk(ctx, root, scanOpts)
	if err != nil {
		return err
	}

	logger.Debug("scan finished", "root", root, "directories", len(dirs))

	store, err := cc.openCache(sess.cfg)
	if err != nil {
		return err
	}

	header, err := cc.readHeader()
	if err != nil {
		return err
	}

	metrics, err := observability.NewConversionMetrics(sess.providers.Meter)
	if err != nil {
		return err
	}

	conv := convert.New(convert.Options{
		Root:        root,
		Javadoc:     javadoc.Options{WrapWidth: cc.wrapWidth},
		Policy:      policy,
		Header:      header,
		OutDir:      cc.outDir,
		DryRun:      cc.dryRun,
		Workers:     cc.workers,
		MaxFileSize: scanOpts.MaxFileSize,
		Cache:       store,
	}, convert.Deps{Logger: logger, Tracer: sess.providers.Tracer, Metrics: metrics})

	rep, err := conv.Run(ctx, dirs)
	if err != nil {
		return err
	}

	if store != nil {
		stats := store.Stats()
		logger.Debug("cache stats",
			"hits", stats.Hits, "misses", stats.Misses,
			"disk_hits", stats.DiskHits, "disk_misses", stats.DiskMisses,
			"hit_rate", stats.HitRate(), "memory", humanize.Bytes(safeconv.ClampToUint64(stats.MemorySize)))
	}

	err = report.Write(cmd.OutOrStdout(), rep, format)
	if err != nil {
		return err
	}

	if rep.HasConflicts() {
		return fmt.Errorf("%w: %d", ErrConflicts, rep.Count(report.ActionConflict))
	}

	return nil
}

// applyConfig fills every flag the user did not set from the configuration.
func (cc *ConvertCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if !flags.Changed("policy") {
		cc.policy = cfg.Javadoc.ConflictPolicy
	}

	if !flags.Changed("format") {
		cc.format = cfg.Output.Format
	}

	if !flags.Changed("out") && !cfg.Output.InPlace {
		cc.outDir = cfg.Output.Dir
	}

	if !flags.Changed("workers") {
		cc.workers = cfg.Scan.Workers
	}

	if !flags.Changed("wrap") {
		cc.wrapWidth = cfg.Javadoc.WrapWidth
	}

	if !flags.Changed("include") {
		cc.include = cfg.Scan.Include
	}

	if !flags.Changed("exclude") {
		cc.exclude = cfg.Scan.Exclude
	}

	if !flags.Changed("header-file") {
		cc.headerFile = cfg.Javadoc.HeaderFile
	}

	if !cfg.Cache.Enabled {
		cc.noCache = true
	}
}

func (cc *ConvertCommand) scanOptions(root string, cfg *config.Config) (scan.Options, error) {
	maxSize, err := cfg.Scan.MaxFileSizeBytes()
	if err != nil {
		return scan.Options{}, err
	}

	opts := scan.Options{Include: cc.include, Exclude: cc.exclude, MaxFileSize: maxSize}

	if cc.since != "" {
		changed, changedErr := gitlib.ChangedFiles(root, cc.since)
		if changedErr != nil {
			return scan.Options{}, changedErr
		}

		opts.Changed = changed
	}

	return opts, nil
}

func (cc *ConvertCommand) openCache(cfg *config.Config) (*cache.Cache, error) {
	if cc.noCache {
		return nil, nil //nolint:nilnil // a nil cache disables caching.
	}

	memSize, err := cfg.Cache.MemorySizeBytes()
	if err != nil {
		return nil, err
	}

	store, err := cache.New(memSize, cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	return store, nil
}

func (cc *ConvertCommand) readHeader() (string, error) {
	if cc.headerFile == "" {
		return "", nil
	}

	data, err := os.ReadFile(cc.headerFile)
	if err != nil {
		return "", fmt.Errorf("read header: %w", err)
	}

	return string(data), nil
}
