package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"appbuilder/internal/domain"
	"appbuilder/internal/watcher"
)

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [app-id] [file]",
		Short: "Write an application definition to a JSON file",
		Long: `Writes the definition as JSON. Pass the same file to "serve --watch" to
have edits to it installed on the canvas.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			doc, err := a.Apps.GetApp(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := watcher.WriteDefinition(args[1], *doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d widgets) to %s\n", doc.Name, len(doc.Components), args[1])
			return nil
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Replace an application's widgets with those of a definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := watcher.ReadDefinition(args[0])
			if err != nil {
				return err
			}

			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			if err := a.Editor.ReplaceComponents(cmd.Context(), *doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d widgets into %s\n", len(doc.Components), doc.ID)
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [app-id]",
		Short: "List recorded canvas snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			entries, err := a.Editor.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []domain.HistoryEntry{}
			}
			return c.emit(cmd, entries, func() string {
				t := newTable("ID", "LABEL", "WIDGETS", "RECORDED")
				for _, e := range entries {
					t.Row(e.ID, e.Label, strconv.Itoa(len(e.Components)), e.CreatedAt.Local().Format(timeLayout))
				}
				return t.String()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of snapshots (0 for all)")
	return cmd
}

func (c *cli) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [app-id] [snapshot-id]",
		Short: "Replace an application's widgets with a recorded snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			if err := a.Editor.RestoreSnapshot(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s from %s\n", args[0], args[1])
			return nil
		},
	}
}
