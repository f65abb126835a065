package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/swarupplay/backend/internal/config"
	"github.com/swarupplay/backend/internal/stream"
)

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Origin implements stream.Origin by reading objects from an S3-compatible
// bucket. Range headers are passed through to GetObject.
type S3Origin struct {
	client objectGetter
	bucket string
	prefix string
}

// NewS3Origin configures a client targeting the provided object store.
func NewS3Origin(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Origin, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 origin: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	return newS3Origin(client, cfg), nil
}

func newS3Origin(client objectGetter, cfg config.ObjectStoreConfig) *S3Origin {
	return &S3Origin{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}
}

// Key returns the object key for a file id.
func (o *S3Origin) Key(fileID string) string {
	if o.prefix == "" {
		return fileID
	}
	return o.prefix + "/" + fileID
}

// Fetch reads the object, honouring rangeHeader when set.
func (o *S3Origin) Fetch(ctx context.Context, fileID, rangeHeader string) (*stream.Response, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.Key(fileID)),
	}
	if rangeHeader != "" {
		input.Range = aws.String(rangeHeader)
	}

	out, err := o.client.GetObject(ctx, input)
	if err != nil {
		err = classifyError(fileID, err)
		if errors.Is(err, stream.ErrRangeNotSatisfiable) {
			return nil, &stream.RangeNotSatisfiableError{Key: o.Key(fileID), Size: o.objectSize(ctx, input.Key)}
		}
		return nil, err
	}
	return responseFromOutput(out), nil
}

// objectSize looks up the object length for a 416 Content-Range, or -1.
func (o *S3Origin) objectSize(ctx context.Context, key *string) int64 {
	out, err := o.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(o.bucket), Key: key})
	if err != nil || out == nil || out.ContentLength == nil {
		return -1
	}
	return *out.ContentLength
}

func classifyError(fileID string, err error) error {
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("s3 object %s: %w", fileID, stream.ErrObjectNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("s3 object %s: %w", fileID, stream.ErrObjectNotFound)
		case "InvalidRange":
			return fmt.Errorf("s3 object %s: %w", fileID, stream.ErrRangeNotSatisfiable)
		}
	}

	return &stream.UpstreamError{Op: "s3 get object", Err: err}
}

func responseFromOutput(out *s3.GetObjectOutput) *stream.Response {
	header := http.Header{}
	setIf := func(key string, v *string) {
		if v != nil && *v != "" {
			header.Set(key, *v)
		}
	}

	setIf("Content-Type", out.ContentType)
	setIf("Content-Range", out.ContentRange)
	setIf("ETag", out.ETag)
	setIf("Cache-Control", out.CacheControl)
	setIf("Content-Disposition", out.ContentDisposition)
	if out.ContentLength != nil {
		header.Set("Content-Length", strconv.FormatInt(*out.ContentLength, 10))
	}
	if out.LastModified != nil {
		header.Set("Last-Modified", out.LastModified.UTC().Format(http.TimeFormat))
	}
	if out.AcceptRanges != nil && *out.AcceptRanges != "" {
		header.Set("Accept-Ranges", *out.AcceptRanges)
	} else {
		header.Set("Accept-Ranges", "bytes")
	}

	status := http.StatusOK
	if out.ContentRange != nil && *out.ContentRange != "" {
		status = http.StatusPartialContent
	}

	return &stream.Response{StatusCode: status, Header: header, Body: out.Body}
}
