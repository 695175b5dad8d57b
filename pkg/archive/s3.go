package archive

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/reconcile/internal/errors"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store keeps one JSON object per record under
// <prefix><session>/<seq>.json. Seq is zero-padded so keys list in order.
//
// Example usage:
//
//	cfg, _ := config.LoadDefaultConfig(ctx)
//	store := archive.NewS3Store(s3.NewFromConfig(cfg), "my-bucket", "dispatches/")
type S3Store struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Store creates a store writing to bucket under prefix.
func NewS3Store(client S3API, bucket, prefix string) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3Store) key(sessionID string, seq uint64) string {
	return fmt.Sprintf("%s%s/%020d.json", s.prefix, sessionID, seq)
}

// Put implements Store.
func (s *S3Store) Put(ctx context.Context, r Record) error {
	if r.SessionID == "" || strings.Contains(r.SessionID, "/") {
		return errors.New(errors.CodeArchiveWrite).
			With("session", r.SessionID).
			WithDetail("session id must be non-empty and contain no slash")
	}
	body, err := json.Marshal(r)
	if err != nil {
		return errors.New(errors.CodeArchiveWrite).Wrap(err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(r.SessionID, r.Seq)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"session": r.SessionID,
			"kind":    r.Kind,
		},
	})
	if err != nil {
		return errors.New(errors.CodeArchiveWrite).
			With("session", r.SessionID).
			With("seq", r.Seq).
			Wrap(err)
	}
	return nil
}

// Get implements Store.
func (s *S3Store) Get(ctx context.Context, sessionID string, seq uint64) (Record, error) {
	return s.get(ctx, s.key(sessionID, seq), sessionID, seq)
}

func (s *S3Store) get(ctx context.Context, key, sessionID string, seq uint64) (Record, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if stderrors.As(err, &nsk) {
			return Record{}, notFound(sessionID, seq)
		}
		return Record{}, err
	}
	defer out.Body.Close()

	var r Record
	if err := json.NewDecoder(out.Body).Decode(&r); err != nil {
		return Record{}, fmt.Errorf("archive: decode %s: %w", key, err)
	}
	return r, nil
}

// List implements Store.
func (s *S3Store) List(ctx context.Context, sessionID string) ([]Record, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + sessionID + "/"),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if obj.Key != nil && strings.HasSuffix(*obj.Key, ".json") {
				keys = append(keys, *obj.Key)
			}
		}
	}
	sort.Strings(keys)

	out := make([]Record, 0, len(keys))
	for _, key := range keys {
		r, err := s.get(ctx, key, sessionID, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
