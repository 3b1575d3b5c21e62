package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultBucket receives every uploaded image.
const DefaultBucket = "nicheimage"

// ObjectStore persists binary blobs under a key.
type ObjectStore interface {
	// PutObject stores data and returns its public URL.
	PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Bucket names the container objects are written to.
	Bucket() string
}

// S3Config contains object storage connection settings.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the AWS endpoint, for S3-compatible stores.
	Endpoint string
}

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements ObjectStore on top of S3.
type S3Store struct {
	client s3API
	bucket string
}

// NewS3Store creates an S3-backed object store. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, config *S3Config) (*S3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, config.Bucket), nil
}

func newS3Store(client s3API, bucket string) *S3Store {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &S3Store{client: client, bucket: bucket}
}

// Bucket returns the target bucket.
func (s *S3Store) Bucket() string {
	return s.bucket
}

// PutObject uploads data to the bucket.
func (s *S3Store) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	return objectURL(s.bucket, key), nil
}

func objectURL(bucket, key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
}

// StoredObject is a blob held by MemoryObjectStore.
type StoredObject struct {
	Data        []byte
	ContentType string
}

// MemoryObjectStore implements ObjectStore in memory for tests and local runs.
type MemoryObjectStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]StoredObject
}

// NewMemoryObjectStore creates an empty in-memory object store.
func NewMemoryObjectStore(bucket string) *MemoryObjectStore {
	if bucket == "" {
		bucket = DefaultBucket
	}
	return &MemoryObjectStore{
		bucket:  bucket,
		objects: make(map[string]StoredObject),
	}
}

// Bucket returns the configured bucket name.
func (s *MemoryObjectStore) Bucket() string {
	return s.bucket
}

// PutObject stores a copy of data.
func (s *MemoryObjectStore) PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = StoredObject{Data: bytes.Clone(data), ContentType: contentType}
	return objectURL(s.bucket, key), nil
}

// Object returns a stored object.
func (s *MemoryObjectStore) Object(key string) (StoredObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len returns the number of stored objects.
func (s *MemoryObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
