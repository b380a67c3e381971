package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// FolderParticipants is the S3 prefix for participant photos.
const FolderParticipants = "participants"

// S3 stores participant photos in a single bucket.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	logger   *zap.Logger

	mu      sync.Mutex
	ensured bool
}

// NewS3 creates the photo store. endpointURL overrides the service
// endpoint for local stacks; empty uses the AWS default.
func NewS3(awsCfg aws.Config, endpointURL, bucket string, logger *zap.Logger) *S3 {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
			o.UsePathStyle = true
		}
	})
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
	})
	return &S3{client: client, uploader: uploader, bucket: bucket, logger: logger}
}

// PhotoKey returns the object key for a participant photo:
// participants/{participant_id}/{file}.jpg.
func PhotoKey(participantID, file string) string {
	return path.Join(FolderParticipants, participantID, file+".jpg")
}

// EnsureBucket creates the bucket when absent. The result is cached so
// repeated calls after the first success are free.
func (s *S3) EnsureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ensured {
		return nil
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var notFound *types.NotFound
		if !errors.As(err, &notFound) {
			return fmt.Errorf("head bucket: %w", err)
		}
		s.logger.Info("creating S3 bucket", zap.String("bucket", s.bucket))
		if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	s.ensured = true
	return nil
}

// UploadPhoto stores an image under key.
func (s *S3) UploadPhoto(ctx context.Context, key, contentType string, image []byte) error {
	if err := s.EnsureBucket(ctx); err != nil {
		return err
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(image),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload photo: %w", err)
	}
	return nil
}

// DeleteObject removes an object from the bucket.
func (s *S3) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
