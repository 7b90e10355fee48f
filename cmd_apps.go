package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"appbuilder/internal/domain"
)

func (c *cli) appsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Manage application definitions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create [name]",
		Short: "Create an empty application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			created, err := a.Apps.CreateApp(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, created, func() string {
				return fmt.Sprintf("Created %s (%s)", titleStyle.Render(created.Name), created.ID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			apps, err := a.Apps.ListApps(cmd.Context())
			if err != nil {
				return err
			}
			if apps == nil {
				apps = []domain.AppDefinition{}
			}
			return c.emit(cmd, apps, func() string {
				t := newTable("ID", "NAME", "WIDGETS", "UPDATED")
				for _, app := range apps {
					t.Row(app.ID, app.Name, strconv.Itoa(len(app.Components)), app.UpdatedAt.Local().Format(timeLayout))
				}
				return t.String()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename [app-id] [name]",
		Short: "Rename an application",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			if err := a.Apps.RenameApp(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [app-id]",
		Short: "Delete an application and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			if err := a.Apps.DeleteApp(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	})

	return cmd
}
