package textan

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned when no factory or loader can produce a submission.
var ErrNotFound = errors.New("submission not found")

// Factory creates a fresh submission.
type Factory func() Submission

// Loader produces submissions that are not registered in process, such as
// interpreted source files.
type Loader interface {
	Load(id string) (Submission, error)
}

// LoadError reports that the submission for ID could not be constructed.
type LoadError struct {
	ID  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load submission %s: %v", e.ID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Registry maps submission identifiers to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	loader    Loader
}

// NewRegistry creates a registry with the reference implementation
// registered. loader may be nil.
func NewRegistry(loader Loader) *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		loader:    loader,
	}
	r.Register(ReferenceID, func() Submission { return NewReference() })
	return r
}

// Register binds id to f, replacing any previous factory.
func (r *Registry) Register(id string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = f
}

// IDs returns the registered identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	return ids
}

// Load constructs a fresh submission for id. Any failure, including a panic
// in the factory, is returned as a *LoadError.
func (r *Registry) Load(id string) (sub Submission, err error) {
	defer func() {
		if p := recover(); p != nil {
			sub, err = nil, &LoadError{ID: id, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	r.mu.RLock()
	f, ok := r.factories[id]
	r.mu.RUnlock()
	if ok {
		sub = f()
		if sub == nil {
			return nil, &LoadError{ID: id, Err: errors.New("factory returned nil")}
		}
		return sub, nil
	}

	if r.loader == nil {
		return nil, &LoadError{ID: id, Err: ErrNotFound}
	}
	sub, err = r.loader.Load(id)
	if err != nil {
		return nil, &LoadError{ID: id, Err: err}
	}
	return sub, nil
}
