package artifact

import "fmt"

var (
	// ErrNotFound is returned when an artifact for the given scope / name pair
	// does not exist in the underlying store.
	ErrNotFound = fmt.Errorf("artifact not found")

	// ErrInvalidName is returned when a scope or name would escape the store
	// root or is empty.
	ErrInvalidName = fmt.Errorf("invalid artifact name")
)
