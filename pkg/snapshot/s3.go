package snapshot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotFound is returned by Load when no snapshot has been written yet.
var ErrNotFound = errors.New("snapshot: not found")

// latestKey is the key, relative to the prefix, that always holds the most
// recent snapshot.
const latestKey = "latest.json"

// ObjectAPI is the part of *s3.Client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Snapshot is the stored document.
type Snapshot struct {
	ID      string              `json:"id"`
	TakenAt time.Time           `json:"taken_at"`
	State   jsoniter.RawMessage `json:"state"`
}

// S3Store stores snapshots in an S3 bucket.
type S3Store struct {
	client ObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Store creates a snapshot store.
//
// Parameters:
//   - client: S3 client from aws-sdk-go-v2
//   - bucket: S3 bucket name
//   - prefix: Key prefix for snapshots (e.g., "todos/")
func NewS3Store(client ObjectAPI, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

// Save encodes state and uploads it. It returns the key of the versioned
// copy.
func (s *S3Store) Save(ctx context.Context, state any) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("snapshot encode failed: %w", err)
	}

	takenAt := s.now().UTC()
	snap := Snapshot{
		ID:      uuid.NewString(),
		TakenAt: takenAt,
		State:   raw,
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("snapshot encode failed: %w", err)
	}

	key := s.prefix + takenAt.Format("20060102T150405Z") + "-" + snap.ID + ".json"
	if err := s.put(ctx, key, body, snap); err != nil {
		return "", err
	}
	if err := s.put(ctx, s.prefix+latestKey, body, snap); err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) put(ctx context.Context, key string, body []byte, snap Snapshot) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"snapshot-id": snap.ID,
			"taken-at":    snap.TakenAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 upload of %s failed: %w", key, err)
	}
	return nil
}

// Load reads the latest snapshot and decodes its state into dst.
func (s *S3Store) Load(ctx context.Context, dst any) (*Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.prefix + latestKey),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("s3 download failed: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 download failed: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("snapshot decode failed: %w", err)
	}
	if dst != nil {
		if err := json.Unmarshal(snap.State, dst); err != nil {
			return nil, fmt.Errorf("snapshot decode failed: %w", err)
		}
	}
	return &snap, nil
}
