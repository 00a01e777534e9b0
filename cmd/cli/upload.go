package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anBertoli/slice-vault/pkg/render"
	"github.com/anBertoli/slice-vault/services/slices"
)

// The upload command runs the same pipeline of the api for local files: each file
// is resized and stored in the bucket. Files are processed concurrently, at most
// 'concurrency' at a time. The first failure cancels the remaining uploads.
func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload [files...]",
		Short: "resize local well-log tables and store them in the bucket",
		Args:  cobra.MinimumNArgs(1),
		RunE:  execUploadCmd,
	}
	addStoreFlags(cmd)
	flags := cmd.Flags()
	flags.Int("width", 0, "target number of pixel columns (0 for the default)")
	flags.Int("concurrency", 4, "max number of files processed at the same time")
	return cmd
}

func execUploadCmd(cmd *cobra.Command, args []string) error {
	width, _ := cmd.Flags().GetInt("width")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	st, bucket, err := openStore(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	service := &slices.ValidationMiddleware{
		Next: slices.NewSlicesService(st, render.New(), logger.Sugar(), slices.Config{
			Bucket:      bucket,
			TargetWidth: width,
		}),
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	var mu sync.Mutex
	out := cmd.OutOrStdout()
	for _, path := range args {
		path := path
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			file, err := service.Upload(ctx, filepath.Base(path), f)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "%s -> %s/%s (%d rows, %d columns)\n", path, bucket, file.Key, file.Rows, file.Width)
			return nil
		})
	}
	return g.Wait()
}
