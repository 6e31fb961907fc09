package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ctxrag/ctxrag/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var jsonFormat bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if jsonFormat {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(version.GetInfo())
			}
			cmd.Println(version.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFormat, "json", false, "Output as JSON")

	return cmd
}
