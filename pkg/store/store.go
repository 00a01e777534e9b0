package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"go.uber.org/multierr"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// ObjectStore is the persistence boundary of the application: a set of named
// buckets holding opaque bytes under string keys.
type ObjectStore interface {
	// EnsureBucket creates the bucket if it doesn't exist yet. It is
	// idempotent and must be called once for every bucket before using it.
	EnsureBucket(ctx context.Context, name string) error
	Put(ctx context.Context, bucket, key string, data []byte) error
	// Get returns ErrNotFound if the key doesn't exist in the bucket.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// List returns the keys of the bucket in lexicographic order.
	List(ctx context.Context, bucket string) ([]string, error)
	Close() error
}

var (
	ErrNotFound       = errors.New("object not found")
	ErrNoBucket       = errors.New("bucket not initialized")
	ErrUnknownDriver  = errors.New("unknown storage driver")
	ErrInvalidKey     = errors.New("invalid object key")
	ErrInvalidBucket  = errors.New("invalid bucket name")
	ErrBucketCreation = errors.New("cannot create bucket")
)

// A driver knows how to create a bucket on the backing service and how to
// open a portable blob.Bucket handle on it.
type driver interface {
	create(ctx context.Context, name string) error
	open(ctx context.Context, name string) (*blob.Bucket, error)
}

// BlobStore implements ObjectStore on top of gocloud.dev/blob, so the same
// code runs against S3 compatible services (MinIO included), the local file
// system and memory. Bucket handles are opened by EnsureBucket and cached.
type BlobStore struct {
	driver  driver
	mu      sync.RWMutex
	buckets map[string]*blob.Bucket
}

var _ ObjectStore = &BlobStore{}

func newBlobStore(d driver) *BlobStore {
	return &BlobStore{
		driver:  d,
		buckets: make(map[string]*blob.Bucket),
	}
}

func (bs *BlobStore) EnsureBucket(ctx context.Context, name string) error {
	if name == "" {
		return ErrInvalidBucket
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	if _, ok := bs.buckets[name]; ok {
		return nil
	}

	err := bs.driver.create(ctx, name)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrBucketCreation, name, err)
	}
	bucket, err := bs.driver.open(ctx, name)
	if err != nil {
		return fmt.Errorf("opening bucket %q: %w", name, err)
	}

	bs.buckets[name] = bucket
	return nil
}

func (bs *BlobStore) Put(ctx context.Context, bucket, key string, data []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	b, err := bs.bucket(bucket)
	if err != nil {
		return err
	}
	return b.WriteAll(ctx, key, data, nil)
}

func (bs *BlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	b, err := bs.bucket(bucket)
	if err != nil {
		return nil, err
	}
	data, err := b.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
		}
		return nil, err
	}
	return data, nil
}

func (bs *BlobStore) List(ctx context.Context, bucket string) ([]string, error) {
	b, err := bs.bucket(bucket)
	if err != nil {
		return nil, err
	}

	keys := []string{}
	iter := b.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if obj.IsDir {
			continue
		}
		keys = append(keys, obj.Key)
	}

	// Keys are returned in lexicographic order whatever the driver.
	sort.Strings(keys)
	return keys, nil
}

// Close releases every opened bucket handle.
func (bs *BlobStore) Close() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	var err error
	for name, b := range bs.buckets {
		err = multierr.Append(err, b.Close())
		delete(bs.buckets, name)
	}
	return err
}

// Retrieve the cached handle of an ensured bucket.
func (bs *BlobStore) bucket(name string) (*blob.Bucket, error) {
	bs.mu.RLock()
	b, ok := bs.buckets[name]
	bs.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoBucket, name)
	}
	return b, nil
}
