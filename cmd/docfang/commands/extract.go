package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docfang/pkg/htmlbody"
	"github.com/Sumatoshi-tech/docfang/pkg/javadoc"
	"github.com/Sumatoshi-tech/docfang/pkg/stubs"
)

// ExtractCommand holds the flags of the extract command.
type ExtractCommand struct {
	javadoc   bool
	pkg       string
	header    string
	wrapWidth int
	showKind  bool
}

func newExtractCommand() *cobra.Command {
	ec := &ExtractCommand{}

	cmd := &cobra.Command{
		Use:   "extract [file|-]",
		Short: "Print the body of an HTML document",
		Long: `Print the content between <body> and </body>, falling back to the <html>
element or the whole document. With --javadoc the body is rendered as a
Javadoc comment; with --package a complete package-info.java is printed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: ec.run,
	}

	cmd.Flags().BoolVar(&ec.javadoc, "javadoc", false, "Render the body as a Javadoc comment")
	cmd.Flags().StringVar(&ec.pkg, "package", "", "Render a package-info.java for this package (implies --javadoc)")
	cmd.Flags().StringVar(&ec.header, "header", "", "License header placed above the comment (with --package)")
	cmd.Flags().IntVar(&ec.wrapWidth, "wrap", 0, "Wrap comment lines at this column (0 = no wrapping)")
	cmd.Flags().BoolVar(&ec.showKind, "show-kind", false, "Report which element the body was taken from on stderr")

	return cmd
}

func (ec *ExtractCommand) run(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	html := string(data)
	out := cmd.OutOrStdout()

	if ec.showKind {
		fmt.Fprintf(cmd.ErrOrStderr(), "kind: %s\n", htmlbody.Find(html).Kind)
	}

	if !ec.javadoc && ec.pkg == "" {
		_, err = fmt.Fprint(out, htmlbody.Extract(html))

		return err
	}

	comment := javadoc.PackageHTMLToJavadoc(html, javadoc.Options{WrapWidth: ec.wrapWidth})

	if ec.pkg != "" {
		comment = stubs.PackageInfo(ec.pkg, comment, ec.header)
	}

	_, err = fmt.Fprint(out, comment)

	return err
}
