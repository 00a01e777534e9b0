package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anBertoli/slice-vault/pkg/render"
	"github.com/anBertoli/slice-vault/pkg/welllog"
)

// The render command renders a local table into a PNG file, optionally restricted
// to a depth range.
func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "render a local well-log table as a false-color png",
		Args:  cobra.NoArgs,
		RunE:  execRenderCmd,
	}
	flags := cmd.Flags()
	flags.String("in", "", "input table (csv)")
	flags.String("out", "", "output image (png)")
	flags.Float64("start", 0, "start of the depth range (requires --end)")
	flags.Float64("end", 0, "end of the depth range (requires --start)")
	flags.Int("canvas-width", 640, "width of the rendered image")
	flags.Int("canvas-height", 480, "height of the rendered image")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	cmd.MarkFlagsRequiredTogether("start", "end")
	return cmd
}

func execRenderCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	in, _ := flags.GetString("in")
	out, _ := flags.GetString("out")
	width, _ := flags.GetInt("canvas-width")
	height, _ := flags.GetInt("canvas-height")

	table, err := readTable(in)
	if err != nil {
		return err
	}

	if flags.Changed("start") {
		start, _ := flags.GetFloat64("start")
		end, _ := flags.GetFloat64("end")
		table = welllog.SelectDepthRange(table, start, end)
		if table.Empty() {
			return errors.New("no rows in the requested depth range")
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	renderer := render.New(render.WithCanvas(width, height))
	err = renderer.RenderTo(f, table.Pixels)
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows rendered on a %dx%d canvas\n", out, table.Rows(), width, height)
	return nil
}
