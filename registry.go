package lzma

import (
	"fmt"
	"sync"
)

// Handle identifies a decoder owned by a Registry. The zero Handle is never
// issued.
type Handle uint32

type registryEntry struct {
	mu  sync.Mutex
	dec *Decoder
}

// Registry owns decoders on behalf of hosts that can only pass integers
// around. Calls on different handles run concurrently; calls on one handle
// are serialised.
type Registry struct {
	cfg Config

	mu      sync.Mutex
	next    Handle
	entries map[Handle]*registryEntry
}

func NewRegistry(c Config) *Registry {
	return &Registry{
		cfg:     c,
		entries: make(map[Handle]*registryEntry),
	}
}

func (r *Registry) Create(p Properties) (Handle, error) {
	dec, err := r.cfg.NewDecoder(p)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for {
		r.next++
		if r.next == 0 {
			continue
		}

		if _, ok := r.entries[r.next]; !ok {
			break
		}
	}

	r.entries[r.next] = &registryEntry{dec: dec}

	return r.next, nil
}

func (r *Registry) lookup(h Handle) (*registryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}

	return e, nil
}

func (r *Registry) Decompress(h Handle, dst, src []byte) (int, error) {
	e, err := r.lookup(h)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.dec.Decompress(dst, src)
}

// Destroy closes the decoder behind h. Destroying the zero Handle is a
// no-op.
func (r *Registry) Destroy(h Handle) error {
	if h == 0 {
		return nil
	}

	r.mu.Lock()
	e, ok := r.entries[h]
	delete(r.entries, h)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidHandle, h)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.dec.Close()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Close destroys every remaining decoder and returns the first error.
func (r *Registry) Close() error {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[Handle]*registryEntry)
	r.mu.Unlock()

	var firstErr error

	for h, e := range entries {
		e.mu.Lock()
		err := e.dec.Close()
		e.mu.Unlock()

		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close handle %d: %w", h, err)
		}
	}

	return firstErr
}
