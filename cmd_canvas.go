package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"appbuilder/internal/app"
	"appbuilder/internal/canvas"
	"appbuilder/internal/domain"
)

func (c *cli) widgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "widgets",
		Short: "List the widget types that can be dropped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			types := a.Registry.List()
			return c.emit(cmd, types, func() string {
				t := newTable("TYPE", "NAME", "DEFAULT SIZE", "DESCRIPTION")
				for _, d := range types {
					t.Row(string(d.Component), d.DisplayName,
						fmt.Sprintf("%dx%d", d.DefaultSize.Width, d.DefaultSize.Height), d.Description)
				}
				return t.String()
			})
		},
	}
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [app-id]",
		Short: "Show the widgets placed on an application's canvas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer closeApp(cmd, a)

			v, err := a.Editor.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, v, func() string {
				return titleStyle.Render(v.AppName) + "\n" + boxTable(v.Boxes)
			})
		},
	}
}

// withCanvas opens the app, runs a gesture and prints the resulting box.
func (c *cli) withCanvas(cmd *cobra.Command, appID string, gesture func(a *app.App) (domain.Box, error)) error {
	a, err := c.open(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	if _, err := a.Editor.Open(cmd.Context(), appID); err != nil {
		return err
	}
	box, err := gesture(a)
	if err != nil {
		return err
	}
	return c.emit(cmd, box, func() string { return boxTable([]domain.Box{box}) })
}

func (c *cli) dropCmd() *cobra.Command {
	var (
		dx, dy           float64
		anchorX, anchorY int
		width, height    int
		id               string
		snap             bool
	)
	cmd := &cobra.Command{
		Use:   "drop [app-id] [type]",
		Short: "Drop a widget on the canvas",
		Long: `Drops a widget of the given type. Its position is the anchor (the canvas
origin unless --anchor-x/--anchor-y are given) plus the drag delta.

Example:
  appbuilder drop 3f2a button --dx 100 --dy 40 --snap`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("snap") {
				c.cfg.Canvas.SnapToGrid = snap
			}
			req := canvas.DropRequest{
				Type:  domain.WidgetType(args[1]),
				Delta: domain.Delta{DX: dx, DY: dy},
				ID:    id,
			}
			if cmd.Flags().Changed("anchor-x") || cmd.Flags().Changed("anchor-y") {
				req.Anchor = &domain.Point{X: anchorX, Y: anchorY}
			}
			if width > 0 || height > 0 {
				req.Size = &domain.Size{Width: width, Height: height}
			}
			return c.withCanvas(cmd, args[0], func(a *app.App) (domain.Box, error) {
				return a.Editor.DropWidget(cmd.Context(), args[0], req)
			})
		},
	}
	f := cmd.Flags()
	f.Float64Var(&dx, "dx", 0, "horizontal drag delta")
	f.Float64Var(&dy, "dy", 0, "vertical drag delta")
	f.IntVar(&anchorX, "anchor-x", 0, "anchor left coordinate")
	f.IntVar(&anchorY, "anchor-y", 0, "anchor top coordinate")
	f.IntVar(&width, "width", 0, "width (default: the type's default width)")
	f.IntVar(&height, "height", 0, "height (default: the type's default height)")
	f.StringVar(&id, "id", "", "re-drop the widget with this id")
	f.BoolVar(&snap, "snap", false, "snap the position to the grid")
	return cmd
}

func (c *cli) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move [app-id] [widget-id] [left] [top]",
		Short: "Move a widget",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			left, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid left %q: %w", args[2], err)
			}
			top, err := strconv.Atoi(args[3])
			if err != nil {
				return fmt.Errorf("invalid top %q: %w", args[3], err)
			}
			return c.withCanvas(cmd, args[0], func(a *app.App) (domain.Box, error) {
				return a.Editor.MoveWidget(cmd.Context(), args[0], args[1], left, top)
			})
		},
	}
}

func (c *cli) resizeCmd() *cobra.Command {
	var req canvas.ResizeRequest
	cmd := &cobra.Command{
		Use:   "resize [app-id] [widget-id]",
		Short: "Resize a widget",
		Long: `Resizes a widget to (width + dw) x (height + dh). Width and height default
to the widget's current size.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withCanvas(cmd, args[0], func(a *app.App) (domain.Box, error) {
				v, err := a.Editor.View(args[0])
				if err != nil {
					return domain.Box{}, err
				}
				r := req
				for _, b := range v.Boxes {
					if b.ID != args[1] {
						continue
					}
					if r.Width == 0 {
						r.Width = b.Width
					}
					if r.Height == 0 {
						r.Height = b.Height
					}
				}
				return a.Editor.ResizeWidget(cmd.Context(), args[0], args[1], r)
			})
		},
	}
	f := cmd.Flags()
	f.IntVar(&req.Width, "width", 0, "base width")
	f.IntVar(&req.Height, "height", 0, "base height")
	f.IntVar(&req.DeltaWidth, "dw", 0, "width change")
	f.IntVar(&req.DeltaHeight, "dh", 0, "height change")
	return cmd
}
