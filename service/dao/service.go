// Package dao persists keyed entities, such as run summaries.
package dao

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no entity is stored under the key
	ErrNotFound = errors.New("dao: not found")
	// ErrInvalidID is returned for an empty key
	ErrInvalidID = errors.New("dao: invalid id")
	// ErrNilEntity is returned when saving nil
	ErrNilEntity = errors.New("dao: nil entity")
)

// Service stores entities of type T by key K
type Service[K comparable, T any] interface {
	Save(ctx context.Context, t *T) error

	Load(ctx context.Context, id K) (*T, error)

	Delete(ctx context.Context, id K) error

	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
