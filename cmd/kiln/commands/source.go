package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source <unit> [blob]",
		Short: "Produce the content of a unit",
		Long: "Produce the content of a unit, served from the cache when its hash is unchanged.\n" +
			"A single blob is written to stdout as is. Several blobs are listed with their sizes.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.SourceOptions{Unit: args[0]}
			if len(args) == 2 {
				opts.Blob = args[1]
			}
			opts.Out, _ = cmd.Flags().GetString("out")

			src, err := c.app.Source(cmd.Context(), c.root, opts)
			if err != nil {
				return err
			}
			if opts.Out != "" {
				return nil
			}

			out := cmd.OutOrStdout()
			if len(src.Blobs) == 1 {
				_, err := out.Write(src.Blobs[0].Data)
				return err
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, b := range src.Blobs {
				_, _ = fmt.Fprintf(w, "%s\t%d\n", b.ID, len(b.Data))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringP("out", "o", "", "Export to this path; end it with a separator to write a directory")
	return cmd
}

func (c *CLI) newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <unit>",
		Short: "Print the current content hash of a unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, ok, err := c.app.Hash(cmd.Context(), c.root, args[0])
			if err != nil {
				return err
			}
			if !ok {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "-")
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), h.Hex())
			return err
		},
	}
}

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <unit>",
		Short: "List the blob ids a unit produces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := c.app.List(cmd.Context(), c.root, args[0])
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func (c *CLI) newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <unit>",
		Short: "Drop the cached content of a unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Refresh(cmd.Context(), c.root, args[0])
		},
	}
}
