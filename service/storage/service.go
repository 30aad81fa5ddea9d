// Package storage persists workflow and crew results through viant/afs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/crewflow/internal/clock"
)

// Service writes and reads result files relative to a base URL
type Service struct {
	fs      afs.Service
	baseURL string
}

// Option customises the storage service
type Option func(s *Service)

// WithFS sets the afs service
func WithFS(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// New creates a storage service rooted at baseURL; relative names are
// resolved against it, absolute URLs are used as is.
func New(baseURL string, opts ...Option) *Service {
	ret := &Service{baseURL: strings.TrimRight(baseURL, "/")}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	return ret
}

// BaseURL returns the base URL
func (s *Service) BaseURL() string { return s.baseURL }

// URL resolves name against the base URL
func (s *Service) URL(name string) string {
	if s.baseURL == "" || url.Scheme(name, "") != "" || strings.HasPrefix(name, "/") {
		return name
	}
	return url.Join(s.baseURL, name)
}

// Write stores data under name, creating parent folders, and returns the stored asset
func (s *Service) Write(ctx context.Context, name string, data []byte) (*Asset, error) {
	if name == "" {
		return nil, fmt.Errorf("storage: name was empty")
	}
	URL := s.URL(name)
	parent, _ := url.Split(URL, file.Scheme)
	if ok, _ := s.fs.Exists(ctx, parent); !ok {
		if err := s.fs.Create(ctx, parent, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create folder %s: %w", parent, err)
		}
	}
	if err := s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", URL, err)
	}
	object, err := s.fs.Object(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to get object for %s: %w", URL, err)
	}
	return &Asset{
		URL:         URL,
		Name:        object.Name(),
		Size:        object.Size(),
		ModTime:     object.ModTime(),
		ContentType: ContentType(URL),
	}, nil
}

// Read returns the content stored under name
func (s *Service) Read(ctx context.Context, name string) ([]byte, error) {
	URL := s.URL(name)
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", URL, err)
	}
	return data, nil
}

// List returns the assets stored directly under folder
func (s *Service) List(ctx context.Context, folder string) ([]*Asset, error) {
	URL := s.URL(folder)
	objects, err := s.fs.List(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", URL, err)
	}
	var ret []*Asset
	for _, object := range objects {
		if url.Equals(object.URL(), URL) {
			continue
		}
		ret = append(ret, &Asset{
			URL:         object.URL(),
			Name:        object.Name(),
			IsDir:       object.IsDir(),
			Size:        object.Size(),
			ModTime:     object.ModTime(),
			ContentType: ContentType(object.Name()),
		})
	}
	return ret, nil
}

// TimestampedName returns dir/prefix_YYYYMMDD_HHMM.ext
func TimestampedName(dir, prefix, ext string, at time.Time) string {
	ext = strings.TrimPrefix(ext, ".")
	name := prefix + "_" + at.Format(clock.StampLayout)
	if ext != "" {
		name += "." + ext
	}
	if dir == "" {
		return name
	}
	return path.Join(dir, name)
}
