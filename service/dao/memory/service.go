// Package memory implements dao.Service in memory.
package memory

import (
	"context"
	"sync"

	"github.com/viant/crewflow/service/dao"
)

// Service keeps entities of type *T mapped by a comparable key K obtained
// from keySelector.
type Service[K comparable, T any] struct {
	mu          sync.RWMutex
	records     map[K]*T
	order       []K
	keySelector func(*T) K
	attributes  dao.Attributes[T]
}

var _ dao.Service[string, struct{}] = (*Service[string, struct{}])(nil)

// New creates a memory service; attributes enables List filtering and may be nil
func New[K comparable, T any](keySelector func(*T) K, attributes dao.Attributes[T]) *Service[K, T] {
	return &Service[K, T]{
		records:     make(map[K]*T),
		keySelector: keySelector,
		attributes:  attributes,
	}
}

// Save stores or overwrites a record.
func (s *Service[K, T]) Save(_ context.Context, v *T) error {
	if v == nil {
		return dao.ErrNilEntity
	}
	key := s.keySelector(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		s.order = append(s.order, key)
	}
	s.records[key] = v
	return nil
}

// Load returns a record by key.
func (s *Service[K, T]) Load(_ context.Context, key K) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[key]
	if !ok {
		return nil, dao.ErrNotFound
	}
	return v, nil
}

// Delete removes a record.
func (s *Service[K, T]) Delete(_ context.Context, key K) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return dao.ErrNotFound
	}
	delete(s.records, key)
	for i, candidate := range s.order {
		if candidate == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns matching records in insertion order.
func (s *Service[K, T]) List(_ context.Context, parameters ...*dao.Parameter) ([]*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*T, 0, len(s.records))
	for _, key := range s.order {
		v := s.records[key]
		if len(parameters) > 0 && (s.attributes == nil || !dao.Matches(s.attributes(v), parameters)) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
