package link

import (
	"errors"
	"fmt"
	"strings"
)

// ConflictError reports libraries requested both from the local build and
// from the shared provider. Linking such a set defines the same symbols
// twice.
type ConflictError struct {
	Names []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("link conflict: %s requested both as local and as shared libraries", strings.Join(e.Names, ", "))
}

// IsLinkFailure reports whether err is a ConflictError.
func IsLinkFailure(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// Check verifies that no library name appears as both Local and Shared.
func Check(ds []Directive) error {
	shared := map[string]bool{}
	for _, d := range ds {
		if d.Kind == Shared {
			shared[d.Name] = true
		}
	}
	var conflicts []string
	seen := map[string]bool{}
	for _, d := range ds {
		if d.Kind == Local && shared[d.Name] && !seen[d.Name] {
			seen[d.Name] = true
			conflicts = append(conflicts, d.Name)
		}
	}
	if len(conflicts) > 0 {
		return &ConflictError{Names: conflicts}
	}
	return nil
}
