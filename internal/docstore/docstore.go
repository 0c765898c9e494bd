// Package docstore resolves opaque stored-document references into
// time-bounded fetchable URLs. The backing store is any S3-compatible
// bucket (Cloudflare R2, Supabase storage, AWS S3).
package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DefaultTTL is the validity window requested for resolved URLs when the
// caller does not specify one.
const DefaultTTL = 15 * time.Minute

// ResolutionError indicates the document does not exist or access was
// denied. Non-retryable: the coordinator goes straight to fallback.
type ResolutionError struct {
	Ref     string
	Message string
	Cause   error
}

func (e *ResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to resolve document %s: %s: %v", e.Ref, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to resolve document %s: %s", e.Ref, e.Message)
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}

// Resolver turns a document reference into a fetchable URL valid for ttl.
type Resolver interface {
	Resolve(ctx context.Context, documentRef string, ttl time.Duration) (string, error)
}

// Options configures the S3 resolver. Endpoint overrides the AWS default
// for S3-compatible stores (e.g. an R2 account endpoint).
type Options struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Resolver resolves references against one bucket using presigned GET
// URLs. Construct once at process start and reuse across requests.
type S3Resolver struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
}

// NewS3Resolver creates a resolver from options. Bucket is required.
func NewS3Resolver(ctx context.Context, opts Options) (*S3Resolver, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("docstore: bucket is required")
	}
	if opts.Region == "" {
		opts.Region = "auto"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts,
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("docstore: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &S3Resolver{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  opts.Bucket,
	}, nil
}

// Resolve checks the object exists, then presigns a GET URL valid for ttl.
// It never reads object content, only metadata.
func (r *S3Resolver) Resolve(ctx context.Context, documentRef string, ttl time.Duration) (string, error) {
	if documentRef == "" {
		return "", &ResolutionError{Ref: documentRef, Message: "empty document reference"}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(documentRef),
	}

	if _, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: input.Bucket,
		Key:    input.Key,
	}); err != nil {
		return "", &ResolutionError{Ref: documentRef, Message: "document not found or access denied", Cause: err}
	}

	signed, err := r.presign.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", &ResolutionError{Ref: documentRef, Message: "failed to presign URL", Cause: err}
	}
	return signed.URL, nil
}
