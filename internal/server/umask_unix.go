//go:build unix

package server

import "golang.org/x/sys/unix"

// setUmask sets the process umask and returns the previous one. The umask
// is process wide.
func setUmask(mask int) int {
	return unix.Umask(mask)
}
