package main

import (
	"time"

	"github.com/spf13/cobra"

	"appbuilder/internal/app"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		watch string
		poll  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Long: `Runs appbuilder as a standalone MCP server on stdin/stdout so AI agents can
lay out widgets. Canvases open in the server are reloaded when another
process writes to the same store, and history compaction runs on the
configured schedule.

With --watch, edits to an exported definition file are installed on the
canvas of the application it names.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			return a.Serve(cmd.Context(), app.ServeOptions{
				In:           cmd.InOrStdin(),
				Out:          cmd.OutOrStdout(),
				WatchFile:    watch,
				PollInterval: poll,
			})
		},
	}
	cmd.Flags().StringVarP(&watch, "watch", "w", "", "definition file to watch")
	cmd.Flags().DurationVar(&poll, "poll", app.DefaultPollInterval, "how often to check the store for external writes")
	return cmd
}
