// Package s3 stores key-value entries as objects in an S3-compatible bucket
// (AWS S3 or MinIO). Each key maps to one object under an optional prefix.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"smokecheck/internal/kv/core"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const defaultRegion = "us-east-1"

// Store implements core.Store on a single bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// Config holds explicit construction parameters.
type Config struct {
	Region          string
	Bucket          string
	Prefix          string // prepended to every key
	Endpoint        string // optional; enables a custom endpoint (e.g. MinIO)
	AccessKeyID     string // optional (falls back to default credentials chain)
	SecretAccessKey string // optional
	SessionToken    string // optional
	PathStyle       bool
	HTTPClient      aws.HTTPClient // optional transport override
}

// New creates an S3 kv store from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Driver returns the kv driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverS3 }

// Bucket returns the target bucket name.
func (s *Store) Bucket() string { return s.bucket }

func (s *Store) objectKey(key string) (string, error) {
	if key == "" {
		return "", core.ErrInvalidKey
	}
	return s.prefix + key, nil
}

// Get downloads the object for key. Missing objects report ok=false.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	objKey, err := s.objectKey(key)
	if err != nil {
		return "", false, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &objKey})
	if err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s: %w", objKey, err)
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", objKey, err)
	}
	return string(data), true, nil
}

// Set overwrites the object for key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	objKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &objKey,
		Body:        bytes.NewReader([]byte(value)),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", objKey, err)
	}
	return nil
}

// MultiRemove deletes each key's object. S3 deletes are idempotent so
// missing objects are not errors.
func (s *Store) MultiRemove(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		objKey, err := s.objectKey(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &objKey}); err != nil && !isNotFound(err) {
			errs = append(errs, fmt.Errorf("delete %s: %w", objKey, err))
		}
	}
	return errors.Join(errs...)
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
