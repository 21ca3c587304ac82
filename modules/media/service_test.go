package media

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/example/chat-relay/domain/chat"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	return NewService(store)
}

func TestServiceStoreClassification(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		wantKind    chat.Kind
	}{
		{
			name:        "declared image type",
			filename:    "cat.png",
			contentType: "image/png",
			wantKind:    chat.KindImage,
		},
		{
			name:        "declared audio type",
			filename:    "song.mp3",
			contentType: "audio/mpeg",
			wantKind:    chat.KindAudio,
		},
		{
			name:        "declared video type",
			filename:    "clip.mp4",
			contentType: "video/mp4",
			wantKind:    chat.KindVideo,
		},
		{
			name:        "non-media type falls back to file",
			filename:    "notes.pdf",
			contentType: "application/pdf",
			wantKind:    chat.KindFile,
		},
		{
			name:     "undeclared type detected from extension",
			filename: "cat.png",
			wantKind: chat.KindImage,
		},
		{
			name:     "unknown extension falls back to file",
			filename: "blob.bin",
			wantKind: chat.KindFile,
		},
	}

	svc := newTestService(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := svc.Store(context.Background(), tt.filename, tt.contentType, []byte("payload"))
			if err != nil {
				t.Fatalf("Store() error = %v", err)
			}
			if ref.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", ref.Kind, tt.wantKind)
			}
			if !strings.HasPrefix(ref.URL, "/uploads/") {
				t.Errorf("URL = %q, want /uploads/ prefix", ref.URL)
			}
		})
	}
}

func TestServiceStoreRejectsEmptyPayload(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Store(context.Background(), "cat.png", "image/png", nil)
	if !errors.Is(err, ErrNoPayload) {
		t.Fatalf("Store() error = %v, want ErrNoPayload", err)
	}
}

func TestServiceStoreRejectsOversizedPayload(t *testing.T) {
	svc := newTestService(t)
	data := make([]byte, MaxUploadSize+1)
	_, err := svc.Store(context.Background(), "big.mp4", "video/mp4", data)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Store() error = %v, want ErrTooLarge", err)
	}
}

func TestServiceFetchRoundTrip(t *testing.T) {
	svc := newTestService(t)
	payload := []byte("png bytes")

	ref, err := svc.Store(context.Background(), "cat.png", "image/png", payload)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	name := strings.TrimPrefix(ref.URL, "/uploads/")
	data, contentType, err := svc.Fetch(context.Background(), name)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !bytes.Equal(data, payload) {
		t.Errorf("Fetch() data = %q, want %q", data, payload)
	}
	if contentType != "image/png" {
		t.Errorf("Fetch() contentType = %q, want image/png", contentType)
	}
}

func TestServiceFetchUnknownName(t *testing.T) {
	svc := newTestService(t)
	_, _, err := svc.Fetch(context.Background(), "nope.png")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Fetch() error = %v, want ErrNotFound", err)
	}
}

func TestServiceConcurrentIdenticalFilenames(t *testing.T) {
	svc := newTestService(t)

	const n = 10
	urls := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref, err := svc.Store(context.Background(), "same.png", "image/png", []byte("x"))
			if err != nil {
				t.Errorf("Store() error = %v", err)
				return
			}
			urls <- ref.URL
		}()
	}
	wg.Wait()
	close(urls)

	seen := make(map[string]bool)
	for url := range urls {
		if seen[url] {
			t.Fatalf("duplicate stored URL %q", url)
		}
		seen[url] = true
	}
	if len(seen) != n {
		t.Fatalf("stored %d distinct URLs, want %d", len(seen), n)
	}
}

func TestStoredName(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		pattern  string
	}{
		{
			name:     "keeps base and extension",
			filename: "cat.png",
			pattern:  `^cat-\d+-[0-9a-f]{8}\.png$`,
		},
		{
			name:     "slugs spaces",
			filename: "my holiday photo.jpg",
			pattern:  `^my-holiday-photo-\d+-[0-9a-f]{8}\.jpg$`,
		},
		{
			name:     "empty base",
			filename: ".png",
			pattern:  `^unnamed-\d+-[0-9a-f]{8}\.png$`,
		},
		{
			name:     "no extension",
			filename: "README",
			pattern:  `^README-\d+-[0-9a-f]{8}$`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := storedName(tt.filename)
			if ok, _ := regexp.MatchString(tt.pattern, got); !ok {
				t.Errorf("storedName(%q) = %q, want match for %q", tt.filename, got, tt.pattern)
			}
		})
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"photo.JPG", "image/jpeg"},
		{"photo.png", "image/png"},
		{"track.mp3", "audio/mpeg"},
		{"clip.webm", "video/webm"},
		{"blob.bin", defaultContentType},
		{"noext", defaultContentType},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := detectContentType(tt.filename); got != tt.want {
				t.Errorf("detectContentType(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
