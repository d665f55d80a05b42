// Package storage puts listing images into Cloud Storage behind Firebase download URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"
)

const MaxUploadBytes = 10 << 20

var (
	ErrTooLarge        = errors.New("upload exceeds 10MiB")
	ErrUnsupportedType = errors.New("only image uploads are supported")
)

type Uploader interface {
	Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error)
}

// CheckContentType accepts image/* types only.
func CheckContentType(contentType string) error {
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/") {
		return ErrUnsupportedType
	}
	return nil
}

// DownloadURL is the Firebase Storage URL for an object carrying the given token.
func DownloadURL(bucket, objectPath, token string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucket, url.PathEscape(objectPath), token)
}

type gcsUploader struct {
	client *gcs.Client
	bucket string
}

func NewGCSUploader(client *gcs.Client, bucket string) Uploader {
	return &gcsUploader{client: client, bucket: bucket}
}

func (u *gcsUploader) Upload(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	if err := CheckContentType(contentType); err != nil {
		return "", err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	token := uuid.NewString()
	w := u.client.Bucket(u.bucket).Object(path).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	n, err := io.Copy(w, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", err
	}
	if n > MaxUploadBytes {
		// cancelling the writer's context aborts the upload
		cancel()
		return "", ErrTooLarge
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return DownloadURL(u.bucket, path, token), nil
}

// MemoryUploader keeps uploads in memory. Used when no bucket is configured.
type MemoryUploader struct {
	Bucket string

	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryUploader(bucket string) *MemoryUploader {
	return &MemoryUploader{Bucket: bucket, objects: map[string][]byte{}}
}

func (m *MemoryUploader) Upload(_ context.Context, path, contentType string, r io.Reader) (string, error) {
	if err := CheckContentType(contentType); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return "", err
	}
	if len(data) > MaxUploadBytes {
		return "", ErrTooLarge
	}
	m.mu.Lock()
	m.objects[path] = data
	m.mu.Unlock()
	return DownloadURL(m.Bucket, path, uuid.NewString()), nil
}

// Object returns the stored bytes for path.
func (m *MemoryUploader) Object(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[path]
	return b, ok
}
