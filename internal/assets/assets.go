// Package assets stages deployment artifacts (the upload-cover Lambda
// bundle) and uploads them to the shared assets bucket under
// content-addressed keys.
package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/lex00/bookworm-infra-go/internal/logging"
)

// KeyPrefix prefixes every asset key in the assets bucket.
const KeyPrefix = "assets/"

// Asset is a staged local artifact.
type Asset struct {
	// Path is the local file.
	Path string
	// Hash is the hex SHA-256 of the file contents.
	Hash string
	// Key is the object key in the assets bucket.
	Key string
	// Size is the file size in bytes.
	Size int64
}

// Stage hashes the file at path. The object key is derived from the
// contents, so an unchanged bundle keeps its key and its function is not
// redeployed.
func Stage(path string) (Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Asset{}, fmt.Errorf("asset %s does not exist", path)
		}
		return Asset{}, fmt.Errorf("reading asset %s: %w", path, err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	return Asset{
		Path: path,
		Hash: hash,
		Key:  KeyPrefix + hash + filepath.Ext(path),
		Size: int64(len(data)),
	}, nil
}

// S3API is the subset of the S3 client used by Uploader.
type S3API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Uploader puts staged assets into a bucket.
type Uploader struct {
	client S3API
	log    logging.Logger
}

// NewUploader creates an Uploader.
func NewUploader(client S3API, log logging.Logger) *Uploader {
	return &Uploader{client: client, log: log}
}

// Upload puts the asset unless an object with its key already exists.
// It reports whether an upload happened.
func (u *Uploader) Upload(ctx context.Context, bucket string, a Asset) (bool, error) {
	_, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(a.Key),
	})
	if err == nil {
		u.log.Debug(ctx, "asset already uploaded", "bucket", bucket, "key", a.Key)
		return false, nil
	}
	if !isNotFound(err) {
		return false, fmt.Errorf("checking s3://%s/%s: %w", bucket, a.Key, err)
	}

	data, err := os.ReadFile(a.Path)
	if err != nil {
		return false, fmt.Errorf("reading asset %s: %w", a.Path, err)
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(a.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/zip"),
	})
	if err != nil {
		return false, fmt.Errorf("uploading s3://%s/%s: %w", bucket, a.Key, err)
	}

	u.log.Info(ctx, "asset uploaded", "bucket", bucket, "key", a.Key, "bytes", len(data))
	return true, nil
}

// Purge deletes every object under KeyPrefix so that CloudFormation can
// delete the bucket. A missing bucket is not an error. It returns the
// number of objects deleted.
func (u *Uploader) Purge(ctx context.Context, bucket string) (int, error) {
	deleted := 0
	paginator := s3.NewListObjectsV2Paginator(u.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(KeyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			if isNoSuchBucket(err) {
				u.log.Debug(ctx, "assets bucket does not exist", "bucket", bucket)
				return deleted, nil
			}
			return deleted, fmt.Errorf("listing s3://%s/%s: %w", bucket, KeyPrefix, err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		ids := make([]s3types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			ids = append(ids, s3types.ObjectIdentifier{Key: obj.Key})
		}
		out, err := u.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("deleting objects in s3://%s: %w", bucket, err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return deleted, fmt.Errorf("deleting s3://%s/%s: %s", bucket, aws.ToString(e.Key), aws.ToString(e.Message))
		}
		deleted += len(ids)
	}

	u.log.Info(ctx, "assets purged", "bucket", bucket, "objects", deleted)
	return deleted, nil
}

func isNoSuchBucket(err error) bool {
	var nb *s3types.NoSuchBucket
	if errors.As(err, &nb) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket"
}

func isNotFound(err error) bool {
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
