//go:build linux || darwin

package arena

import "golang.org/x/sys/unix"

// PageSize returns the system page size the arena reservation is rounded to.
func PageSize() int { return unix.Getpagesize() }
