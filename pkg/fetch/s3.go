package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/robert-malhotra/stac-coverage/internal/metrics"
)

// S3API is the subset of the S3 client used by S3Fetcher.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Fetcher fetches s3://bucket/key documents.
type S3Fetcher struct {
	client S3API
	logger Logger
}

// NewS3Fetcher loads the default AWS configuration for region. Open data
// buckets are read with anonymous credentials unless anonymous is false.
func NewS3Fetcher(ctx context.Context, region string, anonymous bool, logger Logger) (*S3Fetcher, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if anonymous {
		opts = append(opts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Fetcher{client: s3.NewFromConfig(cfg), logger: logger}, nil
}

// NewS3FetcherWithClient wraps an existing client.
func NewS3FetcherWithClient(client S3API, logger Logger) *S3Fetcher {
	return &S3Fetcher{client: client, logger: logger}
}

// Fetch implements Fetcher.
func (f *S3Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	start := time.Now()
	doc, err := f.fetch(ctx, rawURL)
	metrics.ObserveFetch("s3", time.Since(start).Seconds())
	if err != nil {
		fe := AsFetchError(rawURL, err)
		metrics.IncFetchFailure(string(fe.Kind))
		return nil, fe
	}
	return doc, nil
}

func (f *S3Fetcher) fetch(ctx context.Context, rawURL string) (*Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return nil, &FetchError{Kind: KindNetwork, URL: rawURL, Err: fmt.Errorf("not an s3://bucket/key url")}
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if f.logger != nil {
		f.logger.Debugf("fetch: s3 get bucket=%s key=%s", bucket, key)
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var re *smithyhttp.ResponseError
		if errors.As(err, &re) {
			return nil, &FetchError{Kind: KindHTTPStatus, URL: rawURL, Status: re.HTTPStatusCode(), Err: err}
		}
		return nil, &FetchError{Kind: KindNetwork, URL: rawURL, Err: err}
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxBodyBytes+1))
	if err != nil {
		return nil, &FetchError{Kind: KindNetwork, URL: rawURL, Err: err}
	}
	if len(body) > maxBodyBytes {
		return nil, &FetchError{Kind: KindParse, URL: rawURL, Err: fmt.Errorf("document exceeds %d bytes", maxBodyBytes)}
	}
	if err := checkJSON(rawURL, body); err != nil {
		return nil, err
	}

	doc := &Document{URL: rawURL, Body: body, ETag: aws.ToString(out.ETag)}
	if out.LastModified != nil {
		doc.LastModified = *out.LastModified
	}
	return doc, nil
}
