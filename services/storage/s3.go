package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

// ErrNotConfigured is returned when attachments are used without object storage
var ErrNotConfigured = errors.New("object storage is not configured")

// ObjectStore stores submission attachments
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	PresignGet(key string, expiration time.Duration) (string, error)
}

// S3Config holds configuration for an S3 compatible bucket
type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string // empty for AWS, set for Spaces/MinIO
	PublicURL string
}

// S3Client is an ObjectStore backed by an S3 compatible service
type S3Client struct {
	s3Client  *s3.S3
	bucket    string
	publicURL string
}

var _ ObjectStore = (*S3Client)(nil)

// NewS3Client creates a new S3 client
func NewS3Client(config S3Config) (*S3Client, error) {
	if config.Bucket == "" || config.AccessKey == "" || config.SecretKey == "" {
		return nil, ErrNotConfigured
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	awsConfig := &aws.Config{
		Credentials: credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
		Region:      aws.String(config.Region),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &S3Client{
		s3Client:  s3.New(sess),
		bucket:    config.Bucket,
		publicURL: strings.TrimRight(config.PublicURL, "/"),
	}, nil
}

// Put uploads data under key (private ACL) and returns the URL used to reference it
func (c *S3Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := c.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         aws.String(s3.ObjectCannedACLPrivate),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return c.URL(key), nil
}

// Delete removes key from the bucket
func (c *S3Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PresignGet generates a presigned download URL for temporary access
func (c *S3Client) PresignGet(key string, expiration time.Duration) (string, error) {
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

// URL returns the stable reference URL for key
func (c *S3Client) URL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return fmt.Sprintf("s3://%s/%s", c.bucket, key)
}

// SubmissionKey builds the object key of a submission attachment
func SubmissionKey(assignmentID, studentID uint, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("submissions/%d/%d/%s%s", assignmentID, studentID, uuid.NewString(), ext)
}
