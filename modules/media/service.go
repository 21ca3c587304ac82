package media

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/example/chat-relay/domain/chat"
	"github.com/google/uuid"
)

// MaxUploadSize is the largest accepted upload, enforced before storage.
const MaxUploadSize = 20 << 20 // 20 MiB

// urlPrefix is the fixed path prefix under which stored media is served.
const urlPrefix = "/uploads/"

// Ingest errors surfaced to the uploading client.
var (
	// ErrNoPayload is returned when the upload carries no data.
	ErrNoPayload = errors.New("no file uploaded")

	// ErrTooLarge is returned when the upload exceeds MaxUploadSize.
	ErrTooLarge = errors.New("file exceeds the 20 MiB upload limit")
)

// Service persists media uploads and hands back retrievable references.
type Service struct {
	store BlobStore
}

// NewService creates a media service over the given blob store.
func NewService(store BlobStore) *Service {
	return &Service{store: store}
}

// Store persists one upload under a collision-resistant name and returns
// its reference. The declared content type drives kind classification; when
// the client declares none it is detected from the file extension.
func (s *Service) Store(ctx context.Context, filename, contentType string, data []byte) (*chat.MediaReference, error) {
	if len(data) == 0 {
		return nil, ErrNoPayload
	}
	if int64(len(data)) > MaxUploadSize {
		return nil, ErrTooLarge
	}
	if contentType == "" {
		contentType = detectContentType(filename)
	}

	name := storedName(filename)
	if err := s.store.Put(ctx, name, data, contentType); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	return &chat.MediaReference{
		URL:  urlPrefix + name,
		Kind: chat.KindForContentType(contentType),
	}, nil
}

// Fetch reads a stored blob back for serving. The name is reduced to its
// base so retrieval cannot escape the media namespace.
func (s *Service) Fetch(ctx context.Context, name string) ([]byte, string, error) {
	return s.store.Get(ctx, filepath.Base(name))
}

// storedName derives the stored blob name from the original filename: the
// slugged base name plus the ingest timestamp and a random fragment, keeping
// the original extension. Concurrent uploads of identical names cannot
// collide.
func storedName(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)
	base = strings.Join(strings.Fields(base), "-")
	if base == "" || base == "." || base == ".." {
		base = "unnamed"
	}
	return fmt.Sprintf("%s-%d-%s%s", base, time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}
