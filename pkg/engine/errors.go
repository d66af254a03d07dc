// ABOUTME: Sentinel errors for the engine package
// ABOUTME: Callers match these with errors.Is
package engine

import "errors"

var (
	// ErrNotInitialized is returned by device operations before Init completes
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrDisposed is returned by Init and device operations after Dispose
	ErrDisposed = errors.New("engine disposed")

	// ErrInvalidBuffer is returned for buffers without frames or channels
	ErrInvalidBuffer = errors.New("invalid sample buffer")
)
