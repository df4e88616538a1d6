package snapshot

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type memoryBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string
	putErr  error
	puts    int
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{
		objects: make(map[string][]byte),
		meta:    make(map[string]map[string]string),
	}
}

func (b *memoryBucket) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.puts++
	if b.putErr != nil {
		return nil, b.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	b.objects[key] = body
	b.meta[key] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (b *memoryBucket) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	body, ok := b.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

type item struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func TestSaveAndLoad(t *testing.T) {
	bucket := newMemoryBucket()
	store := NewS3Store(bucket, "b", "todos/")
	store.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	key, err := store.Save(context.Background(), []item{{1, "Hello"}, {2, "World"}})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(key, "todos/20240501T120000Z-") || !strings.HasSuffix(key, ".json") {
		t.Errorf("key = %q", key)
	}
	if _, ok := bucket.objects["b/"+key]; !ok {
		t.Errorf("versioned object %q not written", key)
	}
	if _, ok := bucket.objects["b/todos/latest.json"]; !ok {
		t.Fatal("latest object not written")
	}
	if got := bucket.meta["b/todos/latest.json"]["taken-at"]; got != "2024-05-01T12:00:00Z" {
		t.Errorf("taken-at metadata = %q", got)
	}

	var loaded []item
	snap, err := store.Load(context.Background(), &loaded)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded) != 2 || loaded[1].Text != "World" {
		t.Errorf("loaded = %v", loaded)
	}
	if !strings.Contains(key, snap.ID) {
		t.Errorf("snapshot id %q not part of key %q", snap.ID, key)
	}
	if !snap.TakenAt.Equal(store.now()) {
		t.Errorf("TakenAt = %v", snap.TakenAt)
	}
}

func TestLoadMissing(t *testing.T) {
	store := NewS3Store(newMemoryBucket(), "b", "")
	if _, err := store.Load(context.Background(), nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() error = %v, want ErrNotFound", err)
	}
}

func TestSaveError(t *testing.T) {
	bucket := newMemoryBucket()
	bucket.putErr = errors.New("access denied")
	store := NewS3Store(bucket, "b", "")

	_, err := store.Save(context.Background(), []item{})
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Errorf("Save() error = %v, want the upload error", err)
	}
}

func TestSaveUnencodable(t *testing.T) {
	bucket := newMemoryBucket()
	store := NewS3Store(bucket, "b", "")

	if _, err := store.Save(context.Background(), make(chan int)); err == nil {
		t.Error("Save() error = nil, want an encode error")
	}
	if bucket.puts != 0 {
		t.Errorf("puts = %d, want 0", bucket.puts)
	}
}
