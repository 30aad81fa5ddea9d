// Package fs implements dao.Service as one JSON document per entity on any
// afs supported storage.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/crewflow/service/dao"
)

// Service persists entities under baseURL/<key>.json
type Service[T any] struct {
	baseURL     string
	fs          afs.Service
	keySelector func(*T) string
	attributes  dao.Attributes[T]
	logger      *slog.Logger
	mu          sync.RWMutex
}

var _ dao.Service[string, struct{}] = (*Service[struct{}])(nil)

// New creates a file system service, creating baseURL when missing
func New[T any](ctx context.Context, fs afs.Service, baseURL string, keySelector func(*T) string, attributes dao.Attributes[T]) (*Service[T], error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if fs == nil {
		fs = afs.New()
	}
	baseURL = url.Normalize(baseURL, file.Scheme)
	if exists, _ := fs.Exists(ctx, baseURL); !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return &Service[T]{baseURL: baseURL, fs: fs, keySelector: keySelector, attributes: attributes, logger: slog.Default()}, nil
}

// Save persists an entity
func (s *Service[T]) Save(ctx context.Context, entity *T) error {
	if entity == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(entity)
	if key == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal %v: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.entityURL(key)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", URL, err)
	}
	return nil
}

// Load retrieves an entity
func (s *Service[T]) Load(ctx context.Context, key string) (*T, error) {
	if key == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	URL := s.entityURL(key)
	if exists, err := s.fs.Exists(ctx, URL); err != nil {
		return nil, fmt.Errorf("failed to check %s: %w", URL, err)
	} else if !exists {
		return nil, fmt.Errorf("%v: %w", key, dao.ErrNotFound)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", URL, err)
	}
	ret := new(T)
	if err = json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", URL, err)
	}
	return ret, nil
}

// Delete removes an entity
func (s *Service[T]) Delete(ctx context.Context, key string) error {
	if key == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	URL := s.entityURL(key)
	if exists, _ := s.fs.Exists(ctx, URL); !exists {
		return fmt.Errorf("%v: %w", key, dao.ErrNotFound)
	}
	if err := s.fs.Delete(ctx, URL); err != nil {
		return fmt.Errorf("failed to delete %s: %w", URL, err)
	}
	return nil
}

// List returns matching entities ordered by key; unreadable documents are skipped
func (s *Service[T]) List(ctx context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.baseURL, err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name() < objects[j].Name() })
	var ret []*T
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn("failed to read entity", "url", object.URL(), "error", err)
			continue
		}
		entity := new(T)
		if err = json.Unmarshal(data, entity); err != nil {
			s.logger.Warn("failed to unmarshal entity", "url", object.URL(), "error", err)
			continue
		}
		if len(parameters) > 0 && (s.attributes == nil || !dao.Matches(s.attributes(entity), parameters)) {
			continue
		}
		ret = append(ret, entity)
	}
	return ret, nil
}

func (s *Service[T]) entityURL(key string) string {
	return url.Join(s.baseURL, key+".json")
}
