// Package s3 implements entitycache.Store on an S3 bucket. Every entity is a
// JSON object at Prefix+key, so the bucket can be shared with other data.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrymomot/cachekeeper/svc/entitycache"
)

const contentType = "application/json"

// Client is the subset of *s3.Client the store uses.
type Client interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Option configures New.
type Option func(*options)

type options struct {
	client        Client
	configOptions []func(*config.LoadOptions) error
}

// WithClient uses a pre-configured client instead of building one from Config.
func WithClient(c Client) Option {
	return func(o *options) { o.client = c }
}

// WithConfigOption adds an AWS config loading option.
func WithConfigOption(fn func(*config.LoadOptions) error) Option {
	return func(o *options) { o.configOptions = append(o.configOptions, fn) }
}

type object struct {
	Key          string    `json:"key"`
	Payload      string    `json:"payload"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Store persists entities as objects in one bucket.
type Store struct {
	client Client
	bucket string
	prefix string
}

// New builds a store for cfg. Credentials fall back to the default AWS chain
// when no static keys are configured.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}
		loadOpts = append(loadOpts, o.configOptions...)

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Join(ErrFailedToLoadConfig, err)
		}
		client = s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *Store) Save(ctx context.Context, e entitycache.Entity) error {
	body, err := json.Marshal(object{Key: e.Key, Payload: e.Payload, LastAccessed: e.LastAccessed.UTC()})
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(e.Key)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	return classifyError(err, "put entity")
}

func (s *Store) FindByKey(ctx context.Context, key string) (entitycache.Entity, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if isNotFound(err) {
		return entitycache.Entity{}, false, nil
	}
	if err != nil {
		return entitycache.Entity{}, false, classifyError(err, "get entity")
	}
	defer func() { _ = out.Body.Close() }()

	var obj object
	if err := json.NewDecoder(out.Body).Decode(&obj); err != nil {
		return entitycache.Entity{}, false, fmt.Errorf("%w: %q: %w", ErrMalformedObject, key, err)
	}
	return entitycache.Entity{
		Key:          key,
		Payload:      obj.Payload,
		LastAccessed: obj.LastAccessed.UTC(),
	}, true, nil
}

func (s *Store) DeleteByKey(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if isNotFound(err) {
		return nil
	}
	return classifyError(err, "delete entity")
}

// DeleteAll deletes every object under the prefix, one listing page
// (at most 1000 keys) per DeleteObjects call.
func (s *Store) DeleteAll(ctx context.Context) error {
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return classifyError(err, "list entities")
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, types.ObjectIdentifier{Key: obj.Key})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return classifyError(err, "delete entities")
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("s3: delete entities: %d failed, first %s: %s",
				len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}

func (s *Store) ExistsByKey(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, classifyError(err, "head entity")
	}
	return true, nil
}

func (s *Store) objectKey(key string) string {
	return s.prefix + key
}
