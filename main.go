package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"appbuilder/internal/app"
	"appbuilder/internal/config"
	"appbuilder/internal/logging"
)

// cli holds the state shared by every command of one invocation.
type cli struct {
	configPath string
	verbose    bool
	jsonOut    bool

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "appbuilder",
		Short: "Lay out application widgets on a canvas",
		Long: `appbuilder keeps application definitions and lets you place widgets on
their canvas by dropping, moving and resizing them.

Run "appbuilder serve" to expose the canvas to AI agents over MCP (stdio).`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default "+config.DefaultFile+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		c.serveCmd(),
		c.appsCmd(),
		c.widgetsCmd(),
		c.showCmd(),
		c.dropCmd(),
		c.moveCmd(),
		c.resizeCmd(),
		c.exportCmd(),
		c.importCmd(),
		c.historyCmd(),
		c.restoreCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	path := c.configPath
	if path == "" {
		path = config.DefaultFile
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Logging, c.verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.cfg, c.log = cfg, log
	return nil
}

// open builds the application services for a command. The caller closes it.
func (c *cli) open(cmd *cobra.Command) (*app.App, error) {
	return app.New(cmd.Context(), c.cfg, c.log, nil)
}

func closeApp(cmd *cobra.Command, a *app.App) {
	if err := a.Close(cmd.Context()); err != nil {
		a.Log.Warn("close failed", zap.Error(err))
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
