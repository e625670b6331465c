// Package storage places file blobs on a backend addressed by slash-separated
// keys such as "files/7/0f8fad5bd9cb469fa16570867728950e.pdf".
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

const maxKeyLength = 512

// BlobStore is implemented by LocalStore and S3Store.
type BlobStore interface {
	// Put stores r under key and returns the number of bytes written. size
	// is a hint (-1 when unknown).
	Put(ctx context.Context, key string, r io.Reader, size int64) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// UserKey builds the key of a blob owned by userID. One subtree per user.
func UserKey(userID uint, storageName string) string {
	return fmt.Sprintf("files/%d/%s", userID, storageName)
}

func validateKey(key string) error {
	if key == "" || len(key) > maxKeyLength {
		return ErrInvalidKey
	}
	if strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("%w: leading or trailing slash", ErrInvalidKey)
	}
	if strings.Contains(key, "..") || strings.Contains(key, "//") {
		return fmt.Errorf("%w: path traversal", ErrInvalidKey)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: not canonical", ErrInvalidKey)
	}
	for i, r := range key {
		if !isValidKeyChar(r) {
			return fmt.Errorf("%w: character %q at %d", ErrInvalidKey, r, i)
		}
	}
	return nil
}

func isValidKeyChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r == '-' || r == '_' || r == '.' || r == '/'
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
