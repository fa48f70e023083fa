package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config carries the settings for an S3-compatible object store
// (AWS S3, MinIO, LocalStack, ...).
type S3Config struct {
	Endpoint  string // host[:port]; defaults to AWS S3
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

type S3Store struct {
	api     *minio.Client
	bucket  string
	signTTL time.Duration
}

func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3: bucket required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
	api, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}
	return &S3Store{api: api, bucket: cfg.Bucket, signTTL: 15 * time.Minute}, nil
}

func (s *S3Store) Put(key string, r io.Reader) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	_, err := s.api.PutObject(context.Background(), s.bucket, key, r, -1, minio.PutObjectOptions{})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Get opens a read stream for the object. The underlying request is issued
// lazily on first Read, so callers that need a fail-fast existence check
// should Stat first.
func (s *S3Store) Get(key string) (io.ReadCloser, error) {
	obj, err := s.api.GetObject(context.Background(), s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapS3Err(err)
	}
	return obj, nil
}

func (s *S3Store) Stat(key string) (int64, error) {
	info, err := s.api.StatObject(context.Background(), s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, mapS3Err(err)
	}
	return info.Size, nil
}

func (s *S3Store) SignedURL(key string) (string, error) {
	u, err := s.api.PresignedGetObject(context.Background(), s.bucket, key, s.signTTL, nil)
	if err != nil {
		return "", mapS3Err(err)
	}
	return u.String(), nil
}

func mapS3Err(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
		return ErrNotFound
	}
	return err
}
