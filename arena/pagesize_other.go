//go:build !linux && !darwin

package arena

import "os"

// PageSize returns the system page size the arena reservation is rounded to.
func PageSize() int { return os.Getpagesize() }
