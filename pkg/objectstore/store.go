// Package objectstore provides the uniform get/put/presign/stream/list
// adapter over S3-compatible object storage that every other component
// (the multitrack pipeline, the inference client's presigned-URL input,
// the consent sweeper) reads and writes raw and padded audio through.
// It generalizes the teacher's pkg/database/client.go construction shape
// (config struct -> Validate -> construct client -> health-check hook) to
// the AWS SDK for Go v2, following the storage-adapter pattern also shown
// in LumenPrima-tr-engine's internal/storage/s3.go.
package objectstore

import (
	"context"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/reflector-core/reflector/pkg/errs"
)

// defaultPresignExpiry matches the common presigned-URL lifetime used to
// hand audio off to the remote inference services (spec.md §6).
const defaultPresignExpiry = 15 * time.Minute

// ObjectInfo is one entry returned by List.
type ObjectInfo struct {
	Key  string
	Size int64
}

// Store is the seam every caller depends on; production code gets *Client,
// tests can substitute a fake.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error
	PresignGet(ctx context.Context, bucket, key string) (string, error)
	PresignPut(ctx context.Context, bucket, key string) (string, error)
	Stream(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
}

// Client implements Store against an S3-compatible backend. Bucket is
// overridable per call (spec.md §2 "bucket-override per call"); cfg.Bucket
// is used only as NewClient's own health-check target.
type Client struct {
	s3            *s3.Client
	presign       *s3.PresignClient
	uploader      *manager.Uploader
	defaultBucket string
	presignExpiry time.Duration
}

// NewClient validates cfg and constructs a Client, mirroring the teacher's
// NewClient(ctx, cfg) shape in pkg/database/client.go.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}

	switch {
	case cfg.AccessKeyID != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	case cfg.RoleARN != "":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, errs.New(errs.Transient, "objectstore", "NewClient", err)
		}
		stsClient := sts.NewFromConfig(awsCfg)
		opts = append(opts, awsconfig.WithCredentialsProvider(
			stscreds.NewAssumeRoleProvider(stsClient, cfg.RoleARN),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.New(errs.Transient, "objectstore", "NewClient", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.EndpointURL != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = cfg.UsePathStyle()
		})
	}

	s3Client := s3.NewFromConfig(awsCfg, s3Opts...)

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}

	return &Client{
		s3:            s3Client,
		presign:       s3.NewPresignClient(s3Client),
		uploader:      manager.NewUploader(s3Client),
		defaultBucket: cfg.Bucket,
		presignExpiry: expiry,
	}, nil
}

// HealthCheck confirms the default bucket is reachable and credentials are
// valid, matching the teacher's health-check hook convention.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.defaultBucket)})
	if err != nil {
		return classify(err, c.defaultBucket, "HeadBucket")
	}
	return nil
}

func (c *Client) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	rc, err := c.Stream(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf, err := io.ReadAll(rc)
	if err != nil {
		return nil, errs.New(errs.Transient, "objectstore", "Get", err)
	}
	return buf, nil
}

func (c *Client) Stream(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify(err, bucket, "GetObject")
	}
	return out.Body, nil
}

func (c *Client) Put(ctx context.Context, bucket, key string, body io.Reader, contentType string) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return classify(err, bucket, "PutObject")
	}
	return nil
}

func (c *Client) PresignGet(ctx context.Context, bucket, key string) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) { o.Expires = c.presignExpiry })
	if err != nil {
		return "", classify(err, bucket, "PresignGetObject")
	}
	return req.URL, nil
}

func (c *Client) PresignPut(ctx context.Context, bucket, key string) (string, error) {
	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) { o.Expires = c.presignExpiry })
	if err != nil {
		return "", classify(err, bucket, "PresignPutObject")
	}
	return req.URL, nil
}

func (c *Client) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(err, bucket, "ListObjectsV2")
		}
		for _, obj := range page.Contents {
			out = append(out, ObjectInfo{Key: aws.ToString(obj.Key), Size: aws.ToInt64(obj.Size)})
		}
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classify(err, bucket, "DeleteObject")
	}
	return nil
}
