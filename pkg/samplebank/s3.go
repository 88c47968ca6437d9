package samplebank

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client abstracts the S3 API operations used by [S3]. The [s3.Client]
// type satisfies this interface.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 implements Bank backed by Amazon S3 or any S3-compatible object
// store (MinIO, R2, etc.). The caller configures the client with
// credentials, region, and endpoint; refs map to object keys under an
// optional prefix.
type S3 struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3 creates an S3-backed Bank. Prefix is prepended to all object
// keys; pass "" for none.
func NewS3(client S3Client, bucket, prefix string) *S3 {
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (b *S3) key(ref string) string {
	if b.prefix == "" {
		return ref
	}
	return b.prefix + "/" + ref
}

// Put streams the sample to S3 via PutObject. The upload runs in a
// background goroutine fed through an io.Pipe so arbitrarily large
// clips never buffer fully in memory.
func (b *S3) Put(ctx context.Context, userID, modality string, r io.Reader) (string, error) {
	ref, err := newRef(userID, modality)
	if err != nil {
		return "", err
	}

	pr, pw := io.Pipe()
	done := make(chan error, 1)
	go func() {
		_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(b.key(ref)),
			Body:   pr,
		})
		// Unblock a writer stuck on a failed upload.
		pr.CloseWithError(err)
		done <- err
	}()

	if _, err := io.Copy(pw, r); err != nil {
		pw.CloseWithError(err)
		<-done
		return "", err
	}
	pw.Close()
	if err := <-done; err != nil {
		return "", err
	}
	return ref, nil
}

func (b *S3) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(ref)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("samplebank: open %s: %w", ref, os.ErrNotExist)
		}
		return nil, err
	}
	return out.Body, nil
}

// Remove deletes the object. S3 DeleteObject already succeeds for
// missing keys, matching the Bank contract.
func (b *S3) Remove(ctx context.Context, ref string) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(ref)),
	})
	return err
}

func (b *S3) Exists(ctx context.Context, ref string) (bool, error) {
	if err := validateRef(ref); err != nil {
		return false, err
	}
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(ref)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isNotFound reports whether err indicates a missing S3 object.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// Compile-time interface checks.
var (
	_ Bank = (*Local)(nil)
	_ Bank = (*S3)(nil)
)
