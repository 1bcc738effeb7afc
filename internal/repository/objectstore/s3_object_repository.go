package objectstore

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
)

// S3ObjectRepository manages S3 interactions for objects.
type S3ObjectRepository struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucketName string
}

// NewS3ObjectRepository initializes a new S3ObjectRepository.
func NewS3ObjectRepository(client *s3.Client, bucketName string) *S3ObjectRepository {
	return &S3ObjectRepository{
		client:     client,
		uploader:   manager.NewUploader(client),
		bucketName: bucketName,
	}
}

// GetBucketName returns the bucket name.
func (r *S3ObjectRepository) GetBucketName() string {
	return r.bucketName
}

// GetStorageType returns the object store type.
func (r *S3ObjectRepository) GetStorageType() string {
	return string(S3Type)
}

// Upload writes an object to S3 through the multipart upload manager
func (r *S3ObjectRepository) Upload(ctx context.Context, key string, reader io.Reader, quiet bool) (string, error) {
	var body io.Reader = reader
	if !quiet {
		bar := progressbar.DefaultBytes(readerSize(reader), "uploading")
		pbReader := progressbar.NewReader(reader, bar)
		body = &pbReader
	}

	log.Debugf("Uploading to S3: s3://%s/%s", r.bucketName, key)
	_, err := r.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return "", err
	}
	return r.bucketName + "/" + key, nil
}

// Download reads an object from S3
func (r *S3ObjectRepository) Download(ctx context.Context, key string, quiet bool) (io.ReadCloser, error) {
	log.Debugf("Downloading from S3: s3://%s/%s", r.bucketName, key)
	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}

	if quiet {
		return result.Body, nil
	}
	bar := progressbar.DefaultBytes(aws.ToInt64(result.ContentLength), "downloading")
	return &progressReader{r: result.Body, bar: bar}, nil
}
