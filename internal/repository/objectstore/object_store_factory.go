// Package objectstore provides object storage repository implementations and factory.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectRepository defines the interface for object storage operations
type ObjectRepository interface {
	Upload(ctx context.Context, key string, r io.Reader, quiet bool) (string, error)
	Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error)
	GetBucketName() string
	GetStorageType() string
}

// RepositoryType represents the type of object storage
type RepositoryType string

const (
	S3Type  RepositoryType = "s3"
	GCSType RepositoryType = "gcs"
)

// BucketConfig holds configuration for a storage bucket
type BucketConfig struct {
	Name string
	Type RepositoryType
}

// ObjectURI is a bucket plus an object key inside it
type ObjectURI struct {
	Bucket BucketConfig
	Key    string
}

func (u ObjectURI) String() string {
	scheme := "s3"
	if u.Bucket.Type == GCSType {
		scheme = "gs"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, u.Bucket.Name, u.Key)
}

// AWSConfigLoader and GCSClientLoader defer credential lookup until a
// repository of that type is first requested.
type (
	AWSConfigLoader func(ctx context.Context) (aws.Config, error)
	GCSClientLoader func(ctx context.Context) (*storage.Client, error)
)

// ObjectRepositoryFactory creates object repository instances
type ObjectRepositoryFactory struct {
	loadAWS AWSConfigLoader
	loadGCS GCSClientLoader

	mu        sync.Mutex
	s3Client  *s3.Client
	gcsClient *storage.Client
}

// NewObjectRepositoryFactory creates a new factory
func NewObjectRepositoryFactory(loadAWS AWSConfigLoader, loadGCS GCSClientLoader) *ObjectRepositoryFactory {
	return &ObjectRepositoryFactory{
		loadAWS: loadAWS,
		loadGCS: loadGCS,
	}
}

// CreateRepository creates a repository based on bucket configuration
func (f *ObjectRepositoryFactory) CreateRepository(ctx context.Context, config BucketConfig) (ObjectRepository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch config.Type {
	case S3Type:
		if f.s3Client == nil {
			if f.loadAWS == nil {
				return nil, fmt.Errorf("AWS config not configured")
			}
			awsConfig, err := f.loadAWS(ctx)
			if err != nil {
				return nil, err
			}
			f.s3Client = s3.NewFromConfig(awsConfig)
		}
		return NewS3ObjectRepository(f.s3Client, config.Name), nil
	case GCSType:
		if f.gcsClient == nil {
			if f.loadGCS == nil {
				return nil, fmt.Errorf("GCS client not configured")
			}
			client, err := f.loadGCS(ctx)
			if err != nil {
				return nil, err
			}
			f.gcsClient = client
		}
		return NewGCSObjectRepository(f.gcsClient, config.Name), nil
	default:
		return nil, fmt.Errorf("unsupported repository type: %s", config.Type)
	}
}

// Close releases the GCS client if one was created
func (f *ObjectRepositoryFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gcsClient == nil {
		return nil
	}
	err := f.gcsClient.Close()
	f.gcsClient = nil
	return err
}

// IsObjectURI reports whether path names a bucket object rather than a local file
func IsObjectURI(path string) bool {
	scheme, _, ok := strings.Cut(strings.TrimSpace(path), "://")
	if !ok {
		return false
	}
	scheme = strings.ToLower(scheme)
	return scheme == "s3" || scheme == "gs"
}

// ParseObjectURI parses "s3://bucket/key" or "gs://bucket/key"
func ParseObjectURI(uri string) (ObjectURI, error) {
	uri = strings.TrimSpace(uri)

	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return ObjectURI{}, fmt.Errorf("invalid URI format: %s", uri)
	}

	var repoType RepositoryType
	switch strings.ToLower(scheme) {
	case "s3":
		repoType = S3Type
	case "gs":
		repoType = GCSType
	default:
		return ObjectURI{}, fmt.Errorf("unsupported scheme: %s", scheme)
	}

	bucketName, key, _ := strings.Cut(rest, "/")
	if bucketName == "" {
		return ObjectURI{}, fmt.Errorf("bucket name cannot be empty")
	}
	if key == "" || strings.HasSuffix(key, "/") {
		return ObjectURI{}, fmt.Errorf("object key cannot be empty: %s", uri)
	}

	return ObjectURI{
		Bucket: BucketConfig{Name: bucketName, Type: repoType},
		Key:    key,
	}, nil
}
