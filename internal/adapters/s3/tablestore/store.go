// Package tablestore keeps ledger tables as CSV objects in an S3-compatible bucket.
package tablestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/TresYap/sakaydb/internal/adapters/csvcodec"
	"github.com/TresYap/sakaydb/internal/ports/out/tablestore"
)

// Store implements tablestore.Store on S3 (AWS or MinIO).
// Each table is one object: <prefix><name>.csv. Multi-table writes are issued
// sequentially; S3 offers no cross-object atomicity.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// Config holds construction parameters. Credentials fall back to the default chain.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional; custom endpoint such as MinIO
	Prefix          string // optional key prefix, e.g. "ledger/"
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// New creates an S3 table store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
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
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// KeyFor returns the object key used for a table.
func (s *Store) KeyFor(name tablestore.Name) string {
	return s.prefix + string(name) + ".csv"
}

func (s *Store) Read(ctx context.Context, name tablestore.Name) (tablestore.Table, error) {
	if !name.Valid() {
		return tablestore.Table{}, fmt.Errorf("%w: %q", tablestore.ErrUnknownTable, name)
	}
	key := s.KeyFor(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return tablestore.Table{}, tablestore.ErrNotFound
		}
		return tablestore.Table{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()
	return csvcodec.Decode(out.Body, name)
}

func (s *Store) Write(ctx context.Context, tables ...tablestore.Table) error {
	bodies := make([][]byte, len(tables))
	for i, t := range tables {
		if err := t.Validate(); err != nil {
			return err
		}
		b, err := csvcodec.Marshal(t)
		if err != nil {
			return fmt.Errorf("encode %s: %w", t.Name, err)
		}
		bodies[i] = b
	}
	for i, t := range tables {
		key := s.KeyFor(t.Name)
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &s.bucket,
			Key:         &key,
			Body:        bytes.NewReader(bodies[i]),
			ContentType: aws.String(csvcodec.ContentType),
		})
		if err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound {
		return true
	}
	return strings.Contains(err.Error(), "NoSuchKey")
}
