package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/docfang/pkg/report"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Work with JSON conversion reports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file|-]",
		Short: "Validate a JSON report against the report schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			err = report.Validate(data)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "report is valid")

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of conversion reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(report.Schema())

			return err
		},
	})

	return cmd
}
