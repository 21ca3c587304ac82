package media

import (
	"path/filepath"
	"strings"
)

const defaultContentType = "application/octet-stream"

// contentTypeByExt maps file extensions to MIME types for clients that
// upload without declaring a content type.
var contentTypeByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".webp": "image/webp",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".wav":  "audio/wav",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".json": "application/json",
}

// detectContentType resolves a MIME type from the file extension, falling
// back to application/octet-stream.
func detectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ct, ok := contentTypeByExt[ext]; ok {
		return ct
	}
	return defaultContentType
}
