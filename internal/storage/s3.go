// Package storage mirrors deployed plugin bundles to an S3-compatible bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Aman-CERP/pluginkit/internal/config"
	pkerrors "github.com/Aman-CERP/pluginkit/internal/errors"
)

// ObjectAPI is the part of *s3.Client the mirror uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Mirror stores copies of plugin assets under prefix/plugin/version/file.
type S3Mirror struct {
	api    ObjectAPI
	bucket string
	prefix string
}

// NewS3Mirror builds a mirror from configuration. Static credentials are
// used when set, otherwise the AWS default credential chain.
func NewS3Mirror(ctx context.Context, cfg config.MirrorConfig) (*S3Mirror, error) {
	if !cfg.Enabled() {
		return nil, pkerrors.ConfigError("mirror.bucket is not set", nil)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, pkerrors.ConfigError("unable to load AWS config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Custom endpoints are S3-compatible stores that expect path-style URLs.
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewS3MirrorWithAPI(client, cfg.Bucket, cfg.Prefix), nil
}

// NewS3MirrorWithAPI wraps an existing client.
func NewS3MirrorWithAPI(api ObjectAPI, bucket, prefix string) *S3Mirror {
	return &S3Mirror{
		api:    api,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Key returns the object key for one asset of a plugin version.
func (m *S3Mirror) Key(plugin, version, file string) string {
	return path.Join(m.prefix, plugin, version, path.Base(file))
}

// PutAsset uploads one asset and returns its key.
func (m *S3Mirror) PutAsset(ctx context.Context, plugin, version, file string, content []byte) (string, error) {
	key := m.Key(plugin, version, file)

	_, err := m.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType(file)),
	})
	if err != nil {
		return "", pkerrors.New(pkerrors.ErrCodeMirrorFailed, "failed to mirror asset", err).
			WithDetail("bucket", m.bucket).
			WithDetail("key", key)
	}
	return key, nil
}

// Exists reports whether an asset is already mirrored.
func (m *S3Mirror) Exists(ctx context.Context, plugin, version, file string) (bool, error) {
	key := m.Key(plugin, version, file)

	_, err := m.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, pkerrors.New(pkerrors.ErrCodeMirrorFailed, fmt.Sprintf("failed to check %s", key), err).
			WithDetail("bucket", m.bucket)
	}
	return true, nil
}

func contentType(file string) string {
	switch path.Ext(file) {
	case ".js":
		return "application/javascript"
	case ".map", ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
