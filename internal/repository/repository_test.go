package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/debemdeboas/archive-editor/internal/config"
	"github.com/debemdeboas/archive-editor/internal/db"
	"github.com/debemdeboas/archive-editor/internal/model"
	"github.com/debemdeboas/archive-editor/internal/util/compression"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type fakeObject struct {
	data     []byte
	meta     map[string]string
	modified time.Time
}

// fakeS3 is an in-memory bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]fakeObject{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, meta: in.Metadata, modified: time.Now().UTC()}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:         io.NopCloser(bytes.NewReader(obj.data)),
		Metadata:     obj.meta,
		LastModified: aws.Time(obj.modified),
	}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{Metadata: obj.meta, LastModified: aws.Time(obj.modified)}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), LastModified: aws.Time(f.objects[k].modified)})
	}
	return out, nil
}

func backends(t *testing.T) map[string]DraftRepository {
	t.Helper()

	sqlite := db.NewSQLite(":memory:")
	if err := sqlite.InitDB(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	fs, err := NewFSDraftRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	return map[string]DraftRepository{
		"memory": NewMemoryDraftRepository(),
		"sqlite": NewDBDraftRepository(sqlite, compression.ZstdCompressor{}),
		"fs":     fs,
		"s3":     NewS3DraftRepositoryWithClient(newFakeS3(), "bucket", "drafts/", compression.GzipCompressor{}),
	}
}

func TestDraftRepositoryContract(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			d := repo.NewDraft()
			if d.ID == "" {
				t.Fatal("Expected a new draft to have an id")
			}
			d.Title = "First"
			d.CreatedDate = d.CreatedDate.Truncate(time.Second)
			d.SetMarkup([]byte(`<p>Hello</p><img src="a.png" style="width: 300px; height: auto;"/>`), d.CreatedDate)

			if err := repo.SaveDraft(d); err != nil {
				t.Fatalf("SaveDraft failed: %v", err)
			}

			got, err := repo.ReadDraft(d.ID)
			if err != nil {
				t.Fatalf("ReadDraft failed: %v", err)
			}
			if string(got.Markup) != string(d.Markup) {
				t.Errorf("Expected markup %q, got %q", d.Markup, got.Markup)
			}
			if got.Title != "First" || got.ContentHash != d.ContentHash {
				t.Errorf("Expected title and hash to round trip, got %q and %q", got.Title, got.ContentHash)
			}
			if !got.CreatedDate.Equal(d.CreatedDate) {
				t.Errorf("Expected created %v, got %v", d.CreatedDate, got.CreatedDate)
			}

			// Mutating a read copy must not leak into storage.
			got.Markup[0] = 'X'
			again, _ := repo.ReadDraft(d.ID)
			if string(again.Markup) != string(d.Markup) {
				t.Errorf("Expected stored markup to be unaffected, got %q", again.Markup)
			}

			d.SetMarkup([]byte("<p>Changed</p>"), d.CreatedDate.Add(time.Minute))
			if err := repo.SaveDraft(d); err != nil {
				t.Fatalf("SaveDraft update failed: %v", err)
			}
			if got, _ := repo.ReadDraft(d.ID); string(got.Markup) != "<p>Changed</p>" {
				t.Errorf("Expected updated markup, got %q", got.Markup)
			}

			list, err := repo.ListDrafts()
			if err != nil {
				t.Fatalf("ListDrafts failed: %v", err)
			}
			want := []model.Summary{{ID: d.ID, Title: "First", ContentHash: d.ContentHash}}
			if diff := cmp.Diff(want, list, cmpopts.IgnoreFields(model.Summary{}, "ModifiedDate")); diff != "" {
				t.Errorf("Unexpected list (-want +got):\n%s", diff)
			}

			if err := repo.DeleteDraft(d.ID); err != nil {
				t.Fatalf("DeleteDraft failed: %v", err)
			}
			if _, err := repo.ReadDraft(d.ID); !errors.Is(err, ErrDraftNotFound) {
				t.Errorf("Expected ErrDraftNotFound after delete, got %v", err)
			}
			if err := repo.DeleteDraft(d.ID); !errors.Is(err, ErrDraftNotFound) {
				t.Errorf("Expected ErrDraftNotFound on second delete, got %v", err)
			}
		})
	}
}

func TestEmptyDraftRoundTrip(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			d := repo.NewDraft()
			d.SetMarkup([]byte{}, d.CreatedDate)
			if err := repo.SaveDraft(d); err != nil {
				t.Fatal(err)
			}
			got, err := repo.ReadDraft(d.ID)
			if err != nil {
				t.Fatal(err)
			}
			if len(got.Markup) != 0 {
				t.Errorf("Expected empty markup, got %q", got.Markup)
			}
		})
	}
}

func TestListDraftsOrder(t *testing.T) {
	repo := NewMemoryDraftRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"old", "newest", "middle"} {
		d := repo.NewDraft()
		d.Title = title
		d.ModifiedDate = base.Add(time.Duration([]int{0, 2, 1}[i]) * time.Hour)
		repo.SaveDraft(d)
	}

	list, _ := repo.ListDrafts()
	var titles []string
	for _, s := range list {
		titles = append(titles, s.Title)
	}
	if diff := cmp.Diff([]string{"newest", "middle", "old"}, titles); diff != "" {
		t.Errorf("Unexpected order (-want +got):\n%s", diff)
	}
}

func TestFSRejectsPathIDs(t *testing.T) {
	repo, err := NewFSDraftRepository(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []model.DraftID{"", "..", "../escape", `a\b`} {
		if _, err := repo.ReadDraft(id); !errors.Is(err, ErrDraftNotFound) {
			t.Errorf("Expected ErrDraftNotFound for %q, got %v", id, err)
		}
	}
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr bool
	}{
		{"memory", config.StorageConfig{Backend: "memory", Compression: "none"}, false},
		{"sqlite", config.StorageConfig{Backend: "sqlite", Compression: "zstd", SQLite: config.SQLiteConfig{Path: ":memory:"}}, false},
		{"fs", config.StorageConfig{Backend: "fs", Compression: "gzip", FS: config.FSConfig{Dir: t.TempDir()}}, false},
		{"unknown backend", config.StorageConfig{Backend: "redis", Compression: "zstd"}, true},
		{"unknown compression", config.StorageConfig{Backend: "memory", Compression: "lz4"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, closer, err := Open(context.Background(), tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			defer closer.Close()
			if _, err := repo.ListDrafts(); err != nil {
				t.Errorf("Expected a usable repository, got %v", err)
			}
		})
	}
}
