package objectstore

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

// GCSObjectRepository implements ObjectRepository for Google Cloud Storage
type GCSObjectRepository struct {
	client     *storage.Client
	bucketName string
}

// NewGCSObjectRepository creates a new GCS object repository
func NewGCSObjectRepository(client *storage.Client, bucketName string) *GCSObjectRepository {
	return &GCSObjectRepository{
		client:     client,
		bucketName: bucketName,
	}
}

// Upload uploads an object to GCS
func (r *GCSObjectRepository) Upload(ctx context.Context, key string, reader io.Reader, quiet bool) (string, error) {
	writer := r.client.Bucket(r.bucketName).Object(key).NewWriter(ctx)

	var body io.Reader = reader
	if !quiet {
		log.Debugf("Uploading to GCS: gs://%s/%s", r.bucketName, key)
		bar := progressbar.DefaultBytes(readerSize(reader), "uploading")
		pbReader := progressbar.NewReader(reader, bar)
		body = &pbReader
	}

	if _, err := io.Copy(writer, body); err != nil {
		writer.Close()
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}
	// the object is only committed once the writer closes
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to upload to GCS: %w", err)
	}

	return fmt.Sprintf("%s/%s", r.bucketName, key), nil
}

// Download downloads an object from GCS
func (r *GCSObjectRepository) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	log.Debugf("Downloading from GCS: gs://%s/%s", r.bucketName, key)

	reader, err := r.client.Bucket(r.bucketName).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to download from GCS: %w", err)
	}

	if quiet {
		return reader, nil
	}
	bar := progressbar.DefaultBytes(reader.Attrs.Size, "downloading")
	return &progressReader{r: reader, bar: bar}, nil
}

// GetBucketName returns the bucket name
func (r *GCSObjectRepository) GetBucketName() string {
	return r.bucketName
}

// GetStorageType returns the storage type
func (r *GCSObjectRepository) GetStorageType() string {
	return string(GCSType)
}
