package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docfang/pkg/javasrc"
	"github.com/Sumatoshi-tech/docfang/pkg/observability"
)

const sourceFilePerm = 0o644

// QualifyCommand holds the flags of the qualify command.
type QualifyCommand struct {
	global *globalOptions
	write  bool
}

func newQualifyCommand(global *globalOptions) *cobra.Command {
	qc := &QualifyCommand{global: global}

	cmd := &cobra.Command{
		Use:   "qualify <file.java>...",
		Short: "Rewrite Javadoc references to fully-qualified names",
		Long: `Rewrite {@link}, {@linkplain}, {@value}, @see, @throws and @exception
references in the doc comments of Java sources to fully-qualified names.
Names resolve through the file's imports, its own types, the other types of
its directory and java.lang. Without --write the result is printed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: qc.run,
	}

	cmd.Flags().BoolVarP(&qc.write, "write", "w", false, "Rewrite files in place")

	return cmd
}

func (qc *QualifyCommand) run(cmd *cobra.Command, args []string) error {
	sess, err := qc.global.open(observability.ModeCLI, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.close()

	logger := sess.providers.Logger
	siblingCache := make(map[string][]string)

	for _, path := range args {
		dir := filepath.Dir(path)

		siblings, ok := siblingCache[dir]
		if !ok {
			siblings = siblingTypes(dir)
			siblingCache[dir] = siblings
		}

		content, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read %s: %w", path, readErr)
		}

		out, count, qualifyErr := javasrc.QualifyJava(content, siblings)
		if qualifyErr != nil {
			return fmt.Errorf("%s: %w", path, qualifyErr)
		}

		logger.Info("references qualified", "file", path, "count", count)

		if !qc.write {
			_, writeErr := cmd.OutOrStdout().Write(out)
			if writeErr != nil {
				return fmt.Errorf("write output: %w", writeErr)
			}

			continue
		}

		if count == 0 {
			continue
		}

		writeErr := os.WriteFile(path, out, sourceFilePerm)
		if writeErr != nil {
			return fmt.Errorf("write %s: %w", path, writeErr)
		}
	}

	return nil
}

// siblingTypes lists the top-level types declared by the Java sources of dir.
func siblingTypes(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.java"))
	if err != nil {
		return nil
	}

	var types []string

	for _, match := range matches {
		content, readErr := os.ReadFile(match)
		if readErr != nil {
			continue
		}

		file, parseErr := javasrc.ParseJava(content)
		if parseErr != nil {
			continue
		}

		types = append(types, file.Types...)
	}

	slices.Sort(types)

	return slices.Compact(types)
}
