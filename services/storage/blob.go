package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/campusmind/console-api/config"
)

// BlobClient handles course material storage in an S3-compatible bucket
type BlobClient struct {
	s3Client *s3.S3
	bucket   string
	region   string
	endpoint string
}

// NewBlobClient creates a blob client from the loaded environment
func NewBlobClient(env *config.EnviornmentVariable) (*BlobClient, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			env.BLOB_ACCESS_KEY,
			env.BLOB_SECRET_KEY,
			"",
		),
		Endpoint:         aws.String(env.BLOB_ENDPOINT),
		Region:           aws.String(env.BLOB_REGION),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blob store session: %w", err)
	}

	return &BlobClient{
		s3Client: s3.New(sess),
		bucket:   env.BLOB_BUCKET,
		region:   env.BLOB_REGION,
		endpoint: env.BLOB_ENDPOINT,
	}, nil
}

// Upload stores a file under the given key
func (c *BlobClient) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := c.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        aws.ReadSeekCloser(bytes.NewReader(data)),
		ACL:         aws.String("private"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// Download fetches a file by key
func (c *BlobClient) Download(ctx context.Context, key string) ([]byte, error) {
	result, err := c.s3Client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

// Delete removes a file by key
func (c *BlobClient) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// PresignedURL generates a temporary download URL for a stored file
func (c *BlobClient) PresignedURL(key string, expiration time.Duration) (string, error) {
	req, _ := c.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to presign URL: %w", err)
	}
	return url, nil
}

// GenerateKey builds a collision-free storage key for an uploaded material
func GenerateKey(subjectID uint, filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("materials/%d/%s%s", subjectID, uuid.New().String(), ext)
}

// ContentType returns the content type for an uploaded filename
func ContentType(filename string) string {
	switch filepath.Ext(filename) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	default:
		return "application/octet-stream"
	}
}
