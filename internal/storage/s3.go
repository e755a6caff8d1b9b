// Package storage uploads staged files to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/i474232898/weather-etl/internal/metrics"
	"github.com/i474232898/weather-etl/internal/staging"
)

// ErrObjectExists is wrapped by TransferError when replace is disabled and
// the destination key is already taken.
var ErrObjectExists = errors.New("object already exists")

// TransferError reports a failed upload: a missing local file, a conflicting
// object, or any S3 error (credentials, connectivity, permissions).
type TransferError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("upload s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// A non-empty endpoint targets an S3-compatible service with path-style
// addressing.
func NewS3Client(region, endpoint string) (s3iface.S3API, error) {
	cfg := aws.NewConfig().WithRegion(region)
	if endpoint != "" {
		cfg = cfg.WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return s3.New(sess), nil
}

// S3Loader copies staged files into a bucket under a fixed key prefix.
type S3Loader struct {
	client  s3iface.S3API
	bucket  string
	prefix  string
	replace bool
}

func NewS3Loader(client s3iface.S3API, bucket, prefix string, replace bool) *S3Loader {
	return &S3Loader{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		replace: replace,
	}
}

// Key returns the destination key for a staged file name.
func (l *S3Loader) Key(fileName string) string {
	if l.prefix == "" {
		return fileName
	}
	return l.prefix + "/" + fileName
}

// Upload copies f to the bucket and returns the destination key.
func (l *S3Loader) Upload(ctx context.Context, f staging.File) (string, error) {
	key := l.Key(f.Name)
	fail := func(err error) (string, error) {
		return "", &TransferError{Bucket: l.bucket, Key: key, Err: err}
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return fail(err)
	}
	defer fh.Close()

	if !l.replace {
		exists, err := l.exists(ctx, key)
		if err != nil {
			return fail(err)
		}
		if exists {
			return fail(ErrObjectExists)
		}
	}

	info, err := fh.Stat()
	if err != nil {
		return fail(err)
	}

	_, err = l.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(l.bucket),
		Key:           aws.String(key),
		Body:          fh,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return fail(err)
	}

	metrics.UploadedBytes.Add(float64(info.Size()))
	log.Printf("INFO: uploaded %s to s3://%s/%s (%d bytes)", f.Path, l.bucket, key, info.Size())
	return key, nil
}

func (l *S3Loader) exists(ctx context.Context, key string) (bool, error) {
	_, err := l.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var reqErr awserr.RequestFailure
	if errors.As(err, &reqErr) && reqErr.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	var aerr awserr.Error
	if errors.As(err, &aerr) && (aerr.Code() == "NotFound" || aerr.Code() == s3.ErrCodeNoSuchKey) {
		return false, nil
	}
	return false, err
}
