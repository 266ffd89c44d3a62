// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"Monetary_SVAR_Project/internal/logger"
)

// ObjectAPI is the part of *s3.Client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Config struct {
	Bucket          string
	Key             string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store keeps the snapshot as one object. When Cache is set, a successful
// Save or Load also leaves a local copy there, and Load reads that copy when
// the bucket cannot be reached.
type S3Store struct {
	API    ObjectAPI
	Bucket string
	Key    string
	Cache  *FileStore
	Log    *logger.Logger
}

// NewS3Client builds an S3 client from static credentials when given, the
// default AWS chain otherwise.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

func (s *S3Store) Save(ctx context.Context, snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	_, err = s.API.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(s.Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			"content-type": "parquet",
			"range-start":  snap.Start.Format("2006-01-02"),
			"range-end":    snap.End.Format("2006-01-02"),
		},
	})
	if err != nil {
		return fmt.Errorf("upload snapshot s3://%s/%s: %w", s.Bucket, s.Key, err)
	}

	if s.Cache != nil {
		if err := s.Cache.writeBytes(data); err != nil {
			return fmt.Errorf("cache snapshot: %w", err)
		}
	}
	return nil
}

func (s *S3Store) Load(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	out, err := s.API.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: s3://%s/%s", ErrSnapshotMissing, s.Bucket, s.Key)
		}
		err = fmt.Errorf("download snapshot s3://%s/%s: %w", s.Bucket, s.Key, err)
		if s.Cache == nil {
			return nil, err
		}
		return s.loadCached(ctx, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot body: %w", err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("s3://%s/%s: %w", s.Bucket, s.Key, err)
	}

	if s.Cache != nil {
		if err := s.Cache.writeBytes(data); err != nil {
			return nil, fmt.Errorf("cache snapshot: %w", err)
		}
	}
	return snap, nil
}

// loadCached serves the local copy after a failed download. A missing copy
// reports the download error.
func (s *S3Store) loadCached(ctx context.Context, cause error) (*Snapshot, error) {
	log := s.Log
	if log == nil {
		log = logger.Nop()
	}
	snap, err := s.Cache.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrSnapshotMissing) {
			return nil, cause
		}
		return nil, fmt.Errorf("%w (cached copy: %v)", cause, err)
	}
	log.Warn("snapshot bucket unreachable, using cached copy",
		logger.String("object", s.String()),
		logger.String("cache", s.Cache.String()),
		logger.Error(cause))
	return snap, nil
}

func (s *S3Store) String() string { return fmt.Sprintf("s3://%s/%s", s.Bucket, s.Key) }
