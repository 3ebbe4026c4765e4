package artifact

import (
	"path/filepath"
	"strings"
)

// Store persists artifacts by scope and name.
type Store interface {
	// Save stores (or overwrites) the artifact.
	Save(scope, name string, data []byte) error
	// Get returns a copy of the artifact bytes or ErrNotFound.
	Get(scope, name string) ([]byte, error)
	// List returns the artifact names stored under scope.
	List(scope string) ([]string, error)
	// Delete removes the artifact or returns ErrNotFound.
	Delete(scope, name string) error
}

// validName rejects names that are empty or contain path elements.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
