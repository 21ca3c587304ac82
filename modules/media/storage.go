package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrNotFound is returned when a stored blob does not exist.
var ErrNotFound = errors.New("media not found")

// BlobStore is the durable storage behind media ingest. Implementations
// must tolerate concurrent Puts of distinct names.
type BlobStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Get(ctx context.Context, name string) (data []byte, contentType string, err error)
}

// DiskStore implements BlobStore on a local directory.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Put writes a blob. The name is reduced to its base to keep writes inside
// the upload directory.
func (s *DiskStore) Put(_ context.Context, name string, data []byte, _ string) error {
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	return nil
}

// Get reads a blob back. The content type is derived from the stored name's
// extension; the disk store keeps no separate metadata.
func (s *DiskStore) Get(_ context.Context, name string) ([]byte, string, error) {
	path := filepath.Join(s.dir, filepath.Base(name))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to read blob: %w", err)
	}
	return data, detectContentType(name), nil
}

// JetStreamStore implements BlobStore on a NATS JetStream Object Store
// bucket, for deployments where uploads must outlive the local filesystem.
type JetStreamStore struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	store  jetstream.ObjectStore
	bucket string
}

// NewJetStreamStore connects to NATS and prepares a JetStream context.
func NewJetStreamStore(natsURL, bucket string) (*JetStreamStore, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &JetStreamStore{
		conn:   conn,
		js:     js,
		bucket: bucket,
	}, nil
}

// Init binds to the object store bucket, creating it if absent.
func (s *JetStreamStore) Init(ctx context.Context) error {
	store, err := s.js.ObjectStore(ctx, s.bucket)
	if err == nil {
		s.store = store
		return nil
	}

	store, err = s.js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      s.bucket,
		Description: "Chat media upload bucket",
	})
	if err != nil {
		return fmt.Errorf("failed to create object store bucket: %w", err)
	}

	s.store = store
	return nil
}

// Put stores a blob with its content type in the object headers.
func (s *JetStreamStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	meta := jetstream.ObjectMeta{
		Name: name,
		Headers: nats.Header{
			"Content-Type": []string{contentType},
		},
	}

	if _, err := s.store.Put(ctx, meta, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to store object: %w", err)
	}
	return nil
}

// Get retrieves a blob and its declared content type.
func (s *JetStreamStore) Get(ctx context.Context, name string) ([]byte, string, error) {
	result, err := s.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to get object: %w", err)
	}
	defer result.Close()

	data, err := io.ReadAll(result)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read object data: %w", err)
	}

	info, err := result.Info()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get object info: %w", err)
	}

	contentType := defaultContentType
	if info.Headers != nil {
		if ct := info.Headers.Get("Content-Type"); ct != "" {
			contentType = ct
		}
	}
	return data, contentType, nil
}

// IsConnected reports whether the NATS connection is active.
func (s *JetStreamStore) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

// Close closes the NATS connection.
func (s *JetStreamStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
