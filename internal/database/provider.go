package database

import (
	"context"
	"errors"
	"sync"
)

var (
	backendMu     sync.RWMutex
	productWriter func() ProductWriter
	backendName   string
)

// RegisterBackend registers the product repository constructor.
// This is called by the backend packages to avoid import cycles.
// Passing a nil constructor unregisters the backend.
func RegisterBackend(name string, writer func() ProductWriter) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendName = name
	productWriter = writer
}

// BackendName returns the name of the registered backend, or an empty string.
func BackendName() string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	return backendName
}

// GetProductWriter returns a ProductWriter from the registered backend
func GetProductWriter(ctx context.Context) (ProductWriter, error) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	if productWriter == nil {
		return nil, errors.New("database backend not initialized: DATABASE_URL is required")
	}
	return productWriter(), nil
}
