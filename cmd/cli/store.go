package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anBertoli/slice-vault/pkg/store"
)

// Register the flags selecting the object store on the provided command.
func addStoreFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("driver", store.DriverS3, "storage driver: 's3', 'file' or 'mem'")
	flags.String("endpoint", "http://localhost:9000", "s3 endpoint, leave empty for AWS")
	flags.String("region", "us-east-1", "s3 region")
	flags.String("access-key", "minio", "s3 access key")
	flags.String("secret-key", "minio123", "s3 secret key")
	flags.String("root", "./data", "root directory of the file driver")
	flags.String("bucket", "images", "bucket name")
}

// Open the object store described by the flags and make sure the bucket exists.
func openStore(ctx context.Context, cmd *cobra.Command) (*store.BlobStore, string, error) {
	flags := cmd.Flags()

	var cfg store.Config
	var err error
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"driver", &cfg.Driver},
		{"endpoint", &cfg.Endpoint},
		{"region", &cfg.Region},
		{"access-key", &cfg.AccessKey},
		{"secret-key", &cfg.SecretKey},
		{"root", &cfg.Root},
	} {
		*f.dst, err = flags.GetString(f.name)
		if err != nil {
			return nil, "", err
		}
	}
	bucket, err := flags.GetString("bucket")
	if err != nil {
		return nil, "", err
	}

	st, err := store.New(cfg)
	if err != nil {
		return nil, "", err
	}
	err = st.EnsureBucket(ctx, bucket)
	if err != nil {
		st.Close()
		return nil, "", err
	}
	return st, bucket, nil
}
