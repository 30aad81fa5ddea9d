package event

import (
	"context"
	"reflect"
	"sync"

	"github.com/viant/crewflow/service/messaging/memory"
)

// Service owns one memory queue per event type and its listener
type Service struct {
	config     func(name string) memory.Config
	publishers map[reflect.Type]any
	listeners  map[reflect.Type]any
	mux        sync.RWMutex
}

// New creates an event service; config supplies per type queue settings
func New(config func(name string) memory.Config) *Service {
	if config == nil {
		config = func(string) memory.Config { return memory.DefaultConfig() }
	}
	return &Service{
		config:     config,
		publishers: make(map[reflect.Type]any),
		listeners:  make(map[reflect.Type]any),
	}
}

func keyOf[T any]() reflect.Type {
	var t T
	rType := reflect.TypeOf(t)
	if rType != nil && rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return rType
}

// PublisherOf returns the publisher of T events
func PublisherOf[T any](s *Service) *Publisher[T] {
	key := keyOf[T]()
	s.mux.Lock()
	defer s.mux.Unlock()
	if ret, ok := s.publishers[key]; ok {
		return ret.(*Publisher[T])
	}
	ret := NewPublisher[T](memory.NewQueue[Event[T]](s.config(key.String())))
	s.publishers[key] = ret
	return ret
}

// SetListenerOf replaces the listener of T events
func SetListenerOf[T any](ctx context.Context, s *Service, handler func(*Event[T])) {
	key := keyOf[T]()
	publisher := PublisherOf[T](s)
	s.mux.Lock()
	previous, ok := s.listeners[key]
	listener := NewListener[T](publisher, handler)
	s.listeners[key] = listener
	s.mux.Unlock()
	if ok {
		previous.(*Listener[T]).Stop()
	}
	listener.Start(ctx)
}

// DeadLettersOf returns T events whose listener kept failing
func DeadLettersOf[T any](s *Service) []Event[T] {
	return PublisherOf[T](s).DeadLetters()
}

// Close stops every listener
func (s *Service) Close() {
	s.mux.Lock()
	listeners := s.listeners
	s.listeners = make(map[reflect.Type]any)
	s.mux.Unlock()
	for _, listener := range listeners {
		if stopper, ok := listener.(interface{ Stop() }); ok {
			stopper.Stop()
		}
	}
}
