package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidKey = errors.New("invalid object key")

// FileStorage abstracts file persistence. Objects are addressed by a
// slash-separated key such as "team/3f2a....jpg".
type FileStorage interface {
	// Save persists content under folder and returns the object key.
	Save(ctx context.Context, folder, filename string, reader io.Reader) (key string, err error)
	// Open returns a reader for the stored object.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the public URL for key.
	URL(key string) string
	// KeyFromURL reverses URL.
	KeyFromURL(url string) (string, error)
}
