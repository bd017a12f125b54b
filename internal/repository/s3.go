package repository

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/debemdeboas/archive-editor/internal/model"
	"github.com/debemdeboas/archive-editor/internal/util"
	"github.com/debemdeboas/archive-editor/internal/util/compression"
)

// Object metadata keys. S3 lowercases user metadata keys.
const (
	metaTitle       = "title"
	metaCreatedAt   = "created-at"
	metaContentHash = "content-hash"
)

const s3Timeout = 30 * time.Second

// S3API is the part of the S3 client drafts need.
type S3API interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type S3DraftRepository struct { // implements DraftRepository
	client     S3API
	bucket     string
	prefix     string
	compressor compression.Compressor
}

type S3Options struct {
	AccessKeyID     string
	AccessKeySecret string
	BaseEndpoint    string
	Region          string
	Bucket          string
	Prefix          string
}

func NewS3DraftRepository(ctx context.Context, opts S3Options, compressor compression.Compressor) (*S3DraftRepository, error) {
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.AccessKeySecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3DraftRepositoryWithClient(client, opts.Bucket, opts.Prefix, compressor), nil
}

func NewS3DraftRepositoryWithClient(client S3API, bucket, prefix string, compressor compression.Compressor) *S3DraftRepository {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}
	return &S3DraftRepository{
		client:     client,
		bucket:     bucket,
		prefix:     prefix,
		compressor: compressor,
	}
}

func (r *S3DraftRepository) key(id model.DraftID) string {
	return r.prefix + string(id) + draftExt
}

func (r *S3DraftRepository) NewDraft() *model.Draft {
	return newDraft()
}

func (r *S3DraftRepository) SaveDraft(d *model.Draft) error {
	ctx, cancel := context.WithTimeout(context.Background(), s3Timeout)
	defer cancel()

	compressed, err := r.compressor.Compress(d.Markup)
	if err != nil {
		return fmt.Errorf("error compressing content: %w", err)
	}
	if d.ContentHash == "" {
		d.ContentHash = util.ContentHash(d.Markup)
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(d.ID)),
		Body:        bytes.NewReader(compressed),
		ContentType: aws.String("application/octet-stream"),
		Metadata: map[string]string{
			metaTitle:       d.Title,
			metaCreatedAt:   d.CreatedDate.UTC().Format(time.RFC3339Nano),
			metaContentHash: d.ContentHash,
		},
	})
	if err != nil {
		return fmt.Errorf("error uploading draft %s: %w", d.ID, err)
	}

	repoLogger.Debug().Str("draft_id", string(d.ID)).Str("bucket", r.bucket).Msg("Draft uploaded")
	return nil
}

func (r *S3DraftRepository) ReadDraft(id model.DraftID) (*model.Draft, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s3Timeout)
	defer cancel()

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	})
	if err != nil {
		return nil, r.notFound(id, err)
	}
	defer out.Body.Close()

	compressed, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("error downloading draft %s: %w", id, err)
	}
	markup, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing draft %s: %w", id, err)
	}

	d := draftFromMetadata(id, out.Metadata, aws.ToTime(out.LastModified))
	d.Markup = markup
	if d.ContentHash == "" {
		d.ContentHash = util.ContentHash(markup)
	}
	return d, nil
}

func (r *S3DraftRepository) ListDrafts() ([]model.Summary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s3Timeout)
	defer cancel()

	list := make([]model.Summary, 0)
	pages := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(r.prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listing drafts: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, draftExt) {
				continue
			}
			id := model.DraftID(strings.TrimSuffix(strings.TrimPrefix(key, r.prefix), draftExt))

			head, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(r.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				repoLogger.Warn().Err(err).Str("key", key).Msg("Skipping draft without metadata")
				continue
			}
			list = append(list, draftFromMetadata(id, head.Metadata, aws.ToTime(obj.LastModified)).Summary())
		}
	}

	sortSummaries(list)
	return list, nil
}

func (r *S3DraftRepository) DeleteDraft(id model.DraftID) error {
	ctx, cancel := context.WithTimeout(context.Background(), s3Timeout)
	defer cancel()

	// DeleteObject succeeds for missing keys, so check first.
	if _, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	}); err != nil {
		return r.notFound(id, err)
	}

	if _, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	}); err != nil {
		return fmt.Errorf("error deleting draft %s: %w", id, err)
	}
	return nil
}

func (r *S3DraftRepository) notFound(id model.DraftID, err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %s", ErrDraftNotFound, id)
	}
	return fmt.Errorf("error fetching draft %s: %w", id, err)
}

func draftFromMetadata(id model.DraftID, meta map[string]string, modified time.Time) *model.Draft {
	d := &model.Draft{
		ID:           id,
		Title:        meta[metaTitle],
		ContentHash:  meta[metaContentHash],
		CreatedDate:  modified.UTC(),
		ModifiedDate: modified.UTC(),
	}
	if created, err := time.Parse(time.RFC3339Nano, meta[metaCreatedAt]); err == nil {
		d.CreatedDate = created
	}
	return d
}
