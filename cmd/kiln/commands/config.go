package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit unit configuration",
	}

	cmd.AddCommand(c.newConfigGetCmd())
	cmd.AddCommand(c.newConfigSetCmd())
	cmd.AddCommand(c.newConfigClearCmd())

	return cmd
}

func (c *CLI) newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <unit>",
		Short: "Print the effective config of a unit as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := c.app.Config(cmd.Context(), c.root, args[0])
			if err != nil {
				return err
			}
			return printView(cmd, view)
		},
	}
}

func (c *CLI) newConfigSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <unit> <json-patch>",
		Short: "Patch the config of a unit and print the result",
		Long: "Patch the config of a unit through its config store. Nested objects merge key by key.\n" +
			"Without --persist the patch is a preview: the resulting config is printed but not saved.",
		Example: `  kiln config set styles '{"include": ["*.css"]}' --persist`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch map[string]any
			if err := json.Unmarshal([]byte(args[1]), &patch); err != nil || patch == nil {
				return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "patch must be a JSON object"), "patch", args[1])
			}

			mode := domain.ConfigModePreview
			if persist, _ := cmd.Flags().GetBool("persist"); persist {
				mode = domain.ConfigModePersist
			}
			view, err := c.app.SetConfig(cmd.Context(), c.root, args[0], patch, mode)
			if err != nil {
				return err
			}
			return printView(cmd, view)
		},
	}
	cmd.Flags().BoolP("persist", "p", false, "Replace the stored patch instead of previewing")
	return cmd
}

func (c *CLI) newConfigClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <unit>",
		Short: "Drop the config preview of a unit and print the persisted config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := c.app.ClearConfig(cmd.Context(), c.root, args[0])
			if err != nil {
				return err
			}
			return printView(cmd, view)
		},
	}
}

func printView(cmd *cobra.Command, view *domain.ConfigView) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
