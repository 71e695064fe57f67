package seed

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Source opens seed documents.
type Source interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Sink writes documents produced by an export.
type Sink interface {
	Write(ctx context.Context, location string, body io.Reader) error
}

// FileStore reads and writes local files.
type FileStore struct{}

func (FileStore) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(filePath(location))
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	return f, nil
}

func (FileStore) Write(_ context.Context, location string, body io.Reader) error {
	path := filePath(location)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	return f.Close()
}

func filePath(location string) string {
	return strings.TrimPrefix(location, "file://")
}

// Resolver picks a Source or Sink by the location's scheme.
type Resolver struct {
	Files FileStore
	// S3 handles s3:// locations; nil disables them.
	S3 *S3Store
}

// Source returns the store that can read location.
func (r *Resolver) Source(location string) (Source, error) {
	s, err := r.resolve(location)
	if err != nil {
		return nil, err
	}
	return s.(Source), nil
}

// Sink returns the store that can write location.
func (r *Resolver) Sink(location string) (Sink, error) {
	s, err := r.resolve(location)
	if err != nil {
		return nil, err
	}
	return s.(Sink), nil
}

func (r *Resolver) resolve(location string) (any, error) {
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}
	if !strings.Contains(location, "://") {
		return r.Files, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", location, err)
	}
	switch u.Scheme {
	case "file":
		return r.Files, nil
	case "s3":
		if r.S3 == nil {
			return nil, fmt.Errorf("s3 locations are not configured: %s", location)
		}
		return r.S3, nil
	default:
		return nil, fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
}
