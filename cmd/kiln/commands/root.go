// Package commands implements the CLI commands for kiln.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	root    string
}

// Application represents the application logic interface.
type Application interface {
	Source(ctx context.Context, root string, opts app.SourceOptions) (*domain.Source, error)
	Hash(ctx context.Context, root, id string) (domain.ContentHash, bool, error)
	List(ctx context.Context, root, id string) ([]string, error)
	Refresh(ctx context.Context, root, id string) error
	Config(ctx context.Context, root, id string) (*domain.ConfigView, error)
	SetConfig(ctx context.Context, root, id string, patch map[string]any, mode domain.ConfigMode) (*domain.ConfigView, error)
	ClearConfig(ctx context.Context, root, id string) (*domain.ConfigView, error)
	CleanCache(ctx context.Context, root string) error
	ServeAdmin(ctx context.Context, root, listen string) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Cached, content-addressed asset units",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}
	rootCmd.SetVersionTemplate("{{.Name}} version " + build.String() + "\n")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	rootCmd.PersistentFlags().StringVarP(&c.root, "root", "r", ".", "Project root containing kiln.yaml")

	rootCmd.AddCommand(c.newSourceCmd())
	rootCmd.AddCommand(c.newHashCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newRefreshCmd())
	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newAdminCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
