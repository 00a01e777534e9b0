package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list the files stored in the bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, bucket, err := openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			keys, err := st.List(cmd.Context(), bucket)
			if err != nil {
				return err
			}
			for _, key := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
	addStoreFlags(cmd)
	return cmd
}

func newEnsureBucketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ensure-bucket",
		Short: "create the bucket if it doesn't exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, bucket, err := openStore(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer st.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "bucket %q ready\n", bucket)
			return nil
		},
	}
	addStoreFlags(cmd)
	return cmd
}
