package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"buildsync/internal/blob"
	"buildsync/internal/platform/config"
)

// Store uploads document files to S3. Keys follow documents/<timestamp>-<name>
// and the returned locator is the public object URL.
type Store struct {
	client *awss3.Client
	bucket string
	region string
}

func New(ctx context.Context, cfg config.S3) (*Store, error) {
	sdkConfig, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Store{
		client: awss3.NewFromConfig(sdkConfig),
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

func (s *Store) Put(ctx context.Context, data []byte, suggestedName, mimeType string) (blob.Stored, error) {
	key := fmt.Sprintf("documents/%d-%s", time.Now().UnixMilli(), suggestedName)

	_, err := s.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return blob.Stored{}, fmt.Errorf("upload file to S3: %w", err)
	}

	return blob.Stored{
		Locator: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key),
		Key:     key,
		Bucket:  s.bucket,
	}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete file from S3: %w", err)
	}
	return nil
}
