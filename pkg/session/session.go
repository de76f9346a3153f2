// Package session tracks the live streaming connections of a server.
//
// Each WebSocket connection is registered under a random id when it opens and
// removed when it closes. The [Registry] is the only mutable state the server
// shares between requests; everything that belongs to a single generation
// lives in that request's scope.
//
// # Usage
//
//	reg := session.NewRegistry[*wsConn]()
//
//	id, err := reg.Add(conn)
//	if err != nil {
//	    return err
//	}
//	defer reg.Remove(id)
//
//	// On shutdown
//	reg.CloseAll()
package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
)

// ErrNotFound is returned when a connection id is not registered.
var ErrNotFound = errors.New("connection not found")

// Conn is a registered connection.
type Conn interface {
	Close() error
}

// GenerateID creates a cryptographically secure random connection id.
func GenerateID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Registry holds live connections keyed by id. It is safe for concurrent use.
type Registry[C Conn] struct {
	mu    sync.RWMutex
	conns map[string]C
}

// NewRegistry returns an empty registry.
func NewRegistry[C Conn]() *Registry[C] {
	return &Registry[C]{conns: make(map[string]C)}
}

// Add registers conn under a fresh id.
func (r *Registry[C]) Add(conn C) (string, error) {
	id, err := GenerateID()
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.conns[id] = conn
	r.mu.Unlock()
	return id, nil
}

// Get returns the connection registered under id.
func (r *Registry[C]) Get(id string) (C, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		var zero C
		return zero, ErrNotFound
	}
	return c, nil
}

// Remove unregisters id. Removing an unknown id is a no-op.
func (r *Registry[C]) Remove(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
}

// Len returns the number of live connections.
func (r *Registry[C]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Range calls fn for every connection until fn returns false. fn must not
// call back into the registry.
func (r *Registry[C]) Range(fn func(id string, conn C) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.conns {
		if !fn(id, c) {
			return
		}
	}
}

// CloseAll closes and unregisters every connection. It returns the first
// close error.
func (r *Registry[C]) CloseAll() error {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]C)
	r.mu.Unlock()

	var first error
	for _, c := range conns {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
