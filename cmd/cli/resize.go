package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/anBertoli/slice-vault/pkg/welllog"
)

// The resize command resizes a local table, the same transformation applied by
// the api to uploaded files.
func newResizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resize",
		Short: "resize the pixel columns of a local well-log table",
		Args:  cobra.NoArgs,
		RunE:  execResizeCmd,
	}
	flags := cmd.Flags()
	flags.String("in", "", "input table (csv)")
	flags.String("out", "", "output table (csv)")
	flags.Int("width", welllog.DefaultTargetWidth, "target number of pixel columns")
	cmd.MarkFlagRequired("in")
	cmd.MarkFlagRequired("out")
	return cmd
}

func execResizeCmd(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")
	width, _ := cmd.Flags().GetInt("width")

	table, err := readTable(in)
	if err != nil {
		return err
	}
	resized, err := welllog.Resize(table, width)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	err = welllog.Encode(f, resized)
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	info, err := os.Stat(out)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows, %d -> %d columns, %s\n",
		out, resized.Rows(), table.Width(), resized.Width(), humanize.Bytes(uint64(info.Size())))
	return nil
}

func readTable(path string) (welllog.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return welllog.Table{}, err
	}
	defer f.Close()

	table, err := welllog.Decode(f)
	if err != nil {
		return welllog.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}
