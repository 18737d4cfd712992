package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Serve the config-editing API and metrics",
		Long: "Serve the admin HTTP API until interrupted. Config previews made through it\n" +
			"are kept in memory until POST /config/flush and dropped on shutdown.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			return c.app.ServeAdmin(cmd.Context(), c.root, listen)
		},
	}
	cmd.Flags().StringP("listen", "l", "", "Listen address (default from settings, 127.0.0.1:7417)")
	return cmd
}
