package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/memblob"
	"gocloud.dev/blob/s3blob"
)

const (
	DriverS3     = "s3"
	DriverFile   = "file"
	DriverMemory = "mem"

	defaultRegion = "us-east-1"
)

// Config selects and configures the storage backend. Endpoint, Region and
// the keys are used by the s3 driver only (leave Endpoint empty for AWS,
// set it to the MinIO address otherwise), Root by the file driver only.
type Config struct {
	Driver    string `json:"driver"`
	Endpoint  string `json:"endpoint"`
	Region    string `json:"region"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Root      string `json:"root"`
}

// New returns the ObjectStore described by the config. No bucket is touched
// here: callers must run EnsureBucket for the buckets they use during their
// own initialization.
func New(cfg Config) (*BlobStore, error) {
	switch cfg.Driver {
	case DriverS3:
		return NewS3(cfg)
	case DriverFile:
		return NewFS(cfg.Root)
	case DriverMemory, "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// NewMemory returns a store keeping every bucket in memory. Contents are
// lost when the process exits.
func NewMemory() *BlobStore {
	return newBlobStore(memDriver{})
}

// NewFS returns a store where every bucket is a directory under root.
func NewFS(root string) (*BlobStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	stat, err := os.Stat(absRoot)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("'%s' is not a dir", root)
	}
	return newBlobStore(fileDriver{root: absRoot}), nil
}

// NewS3 returns a store backed by an S3 compatible service. Path-style
// addressing is always used, as required by MinIO.
func NewS3(cfg Config) (*BlobStore, error) {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	awsCfg := aws.NewConfig().
		WithRegion(region).
		WithS3ForcePathStyle(true)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.
			WithEndpoint(cfg.Endpoint).
			WithDisableSSL(strings.HasPrefix(cfg.Endpoint, "http://"))
	}
	if cfg.AccessKey != "" {
		awsCfg = awsCfg.WithCredentials(credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""))
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("creating s3 session: %w", err)
	}

	return newBlobStore(&s3Driver{
		sess:   sess,
		client: s3.New(sess),
	}), nil
}

type memDriver struct{}

func (memDriver) create(context.Context, string) error {
	return nil
}

func (memDriver) open(context.Context, string) (*blob.Bucket, error) {
	return memblob.OpenBucket(nil), nil
}

type fileDriver struct {
	root string
}

func (d fileDriver) create(_ context.Context, name string) error {
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return ErrInvalidBucket
	}
	return os.MkdirAll(filepath.Join(d.root, name), 0755)
}

func (d fileDriver) open(_ context.Context, name string) (*blob.Bucket, error) {
	return fileblob.OpenBucket(filepath.Join(d.root, name), nil)
}

type s3Driver struct {
	sess   *session.Session
	client *s3.S3
}

// Create the bucket unless it already exists. A missing bucket is reported
// by HeadBucket as a 404 request failure, any other failure is returned.
func (d *s3Driver) create(ctx context.Context, name string) error {
	_, err := d.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(name),
	})
	if err == nil {
		return nil
	}

	var reqErr awserr.RequestFailure
	if !errors.As(err, &reqErr) || reqErr.StatusCode() != http.StatusNotFound {
		return err
	}

	_, err = d.client.CreateBucketWithContext(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(name),
	})
	var awsErr awserr.Error
	if errors.As(err, &awsErr) && awsErr.Code() == s3.ErrCodeBucketAlreadyOwnedByYou {
		return nil
	}
	return err
}

func (d *s3Driver) open(ctx context.Context, name string) (*blob.Bucket, error) {
	return s3blob.OpenBucket(ctx, d.sess, name, nil)
}
