//go:build !unix

package server

// setUmask is a no-op where the platform has no umask.
func setUmask(int) int {
	return 0
}
