// Package media stores uploaded photos in an S3-compatible bucket.
// Objects of one entity live under a common folder prefix
// <namespace>/<entityType>/<entityID>/ so they can be purged together.
package media

import (
	"context"
	"io"
	"path"
	"strings"

	"car-journal-backend/internal/models"
)

// Store is the media upload adapter used by the image service.
type Store interface {
	// Upload streams body to key and returns the object's public URL.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// DeleteFile removes the object at key.
	DeleteFile(ctx context.Context, key string) error
	// DeleteFolder removes every object under prefix.
	DeleteFolder(ctx context.Context, prefix string) error
	// ListFolder returns the keys of the objects under prefix.
	ListFolder(ctx context.Context, prefix string) ([]string, error)
}

// FolderPath returns the prefix that holds all objects of one entity.
func FolderPath(namespace string, entityType models.EntityType, entityID string) string {
	return path.Join(namespace, string(entityType), entityID)
}

// ObjectKey returns the key of a file inside an entity folder.
func ObjectKey(folder, publicID string) string {
	return folder + "/" + publicID
}

// PublicID returns the identifier of an uploaded object: the last segment of its URL.
func PublicID(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	return path.Base(url)
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

func folderPrefix(prefix string) string {
	return strings.TrimRight(prefix, "/") + "/"
}
