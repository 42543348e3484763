// Package manifold is the slot for a Manifold-backed geometry kernel. The
// Manifold C library is not linked into this build, so New always fails and
// callers fall back to reporting the error.
package manifold

import (
	"errors"

	"github.com/chazu/projview/pkg/kernel"
)

// ErrUnavailable is returned by New.
var ErrUnavailable = errors.New("manifold kernel not available in this build")

// New returns ErrUnavailable.
func New() (kernel.Kernel, error) {
	return nil, ErrUnavailable
}
