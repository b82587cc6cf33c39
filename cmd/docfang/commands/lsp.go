package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docfang/pkg/javadoc"
	"github.com/Sumatoshi-tech/docfang/pkg/lsp"
	"github.com/Sumatoshi-tech/docfang/pkg/observability"
)

func newLSPCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start language server for package.html files (LSP)",
		Long:  `Start a language server (LSP) for package.html files (stdio mode).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := global.open(observability.ModeLSP, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.close()

			opts := javadoc.Options{WrapWidth: sess.cfg.Javadoc.WrapWidth}

			return lsp.NewServer(opts, sess.providers.Logger).Run()
		},
	}
}
