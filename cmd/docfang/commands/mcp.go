package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docfang/pkg/mcp"
	"github.com/Sumatoshi-tech/docfang/pkg/observability"
)

func newMCPCommand(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes docfang as tools that AI agents can discover and invoke:
  - html_body: extract the body of an HTML document
  - package_javadoc: convert package.html contents to a Javadoc comment
  - qualify_javadoc: qualify Javadoc references in a Java source
  - convert_tree: convert a source tree (dry run unless apply is set)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := global.open(observability.ModeMCP, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.close()

			red, err := observability.NewREDMetrics(sess.providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:  sess.providers.Logger,
				Metrics: red,
				Tracer:  sess.providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}
}
