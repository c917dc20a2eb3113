package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/ignite/recon-dashboard/internal/config"
	"github.com/ignite/recon-dashboard/internal/pkg/logger"
	"github.com/ignite/recon-dashboard/internal/recon"
)

// ObjectAPI is the subset of the S3 client the archive reads through.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// ArchiveSource reads consultation history dumps (JSON files) from S3.
// The newest MaxObjects dumps under Prefix are merged into one payload.
type ArchiveSource struct {
	client     ObjectAPI
	bucket     string
	prefix     string
	maxObjects int
}

// NewArchiveSource creates an archive source with the default AWS
// credential chain (or the configured profile).
func NewArchiveSource(ctx context.Context, cfg config.ArchiveConfig) (*ArchiveSource, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if p := cfg.GetAWSProfile(); p != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(p))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for history archive: %w", err)
	}
	return NewArchiveSourceWithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewArchiveSourceWithClient creates an archive source over client.
func NewArchiveSourceWithClient(client ObjectAPI, cfg config.ArchiveConfig) *ArchiveSource {
	n := cfg.MaxObjects
	if n <= 0 {
		n = 50
	}
	return &ArchiveSource{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix, maxObjects: n}
}

// Name returns the source name.
func (a *ArchiveSource) Name() string { return "history_archive" }

// Bucket returns the archive bucket.
func (a *ArchiveSource) Bucket() string { return a.bucket }

// Check verifies the bucket is reachable.
func (a *ArchiveSource) Check(ctx context.Context) error {
	if _, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
		return fmt.Errorf("head bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Fetch lists the archive, reads the newest dumps and returns their rows
// as one {"data": [...]} payload. Unreadable dumps are logged and skipped.
func (a *ArchiveSource) Fetch(ctx context.Context, _ Query) ([]byte, error) {
	objects, err := a.list(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]recon.RawRecord, 0)
	for _, obj := range objects {
		key := aws.ToString(obj.Key)
		body, err := a.get(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("history archive: skipping object", "key", key, "error", err)
			continue
		}
		rows = append(rows, recon.DecodePayload(body)...)
	}

	logger.Debug("history archive: loaded", "bucket", a.bucket, "objects", len(objects), "rows", len(rows))
	data, err := json.Marshal(map[string]any{"data": rows})
	if err != nil {
		return nil, fmt.Errorf("history archive: marshal rows: %w", err)
	}
	return data, nil
}

// list returns the newest .json objects under the prefix, newest first.
func (a *ArchiveSource) list(ctx context.Context) ([]types.Object, error) {
	var objects []types.Object
	p := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(a.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("S3 ListObjectsV2 %s/%s: %w", a.bucket, a.prefix, err)
		}
		for _, obj := range page.Contents {
			if strings.HasSuffix(strings.ToLower(aws.ToString(obj.Key)), ".json") {
				objects = append(objects, obj)
			}
		}
	}

	sort.SliceStable(objects, func(i, j int) bool {
		return aws.ToTime(objects[i].LastModified).After(aws.ToTime(objects[j].LastModified))
	})
	if len(objects) > a.maxObjects {
		objects = objects[:a.maxObjects]
	}
	return objects, nil
}

func (a *ArchiveSource) get(ctx context.Context, key string) ([]byte, error) {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("S3 GetObject %s/%s: %w", a.bucket, key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, fmt.Errorf("reading S3 object body: %w", err)
	}
	return body, nil
}
