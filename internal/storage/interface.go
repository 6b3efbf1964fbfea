package storage

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// MediaStore archives the media a user submitted for captioning so that
// generation history can link back to it.
type MediaStore interface {
	// Upload stores a media object under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// GetURL returns the URL for accessing a stored object.
	GetURL(key string) string

	// Delete removes a stored object.
	Delete(ctx context.Context, key string) error
}

// MediaKey builds the object key for one uploaded media file, namespaced by
// user so per-user cleanup stays a prefix operation.
func MediaKey(userID string) string {
	return "media/" + userID + "/" + uuid.New().String() + ".jpg"
}
