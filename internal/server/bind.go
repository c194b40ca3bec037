package server

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"

	"github.com/MKhiriev/go-http-frame/internal/config"
)

// bindTarget is the resolved address the server listens on.
type bindTarget struct {
	network string
	address string
}

func (b bindTarget) String() string {
	return b.network + "://" + b.address
}

// resolveBind picks the bind target: host and port, then a bare port, then
// a Unix socket file.
func resolveBind(cfg config.Server) (bindTarget, error) {
	switch {
	case cfg.Host != "" && cfg.Port != 0:
		return bindTarget{network: "tcp", address: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))}, nil
	case cfg.Port != 0:
		return bindTarget{network: "tcp", address: ":" + strconv.Itoa(cfg.Port)}, nil
	case cfg.File != "":
		return bindTarget{network: "unix", address: cfg.File}, nil
	default:
		return bindTarget{}, ErrNoBindTarget
	}
}

func listen(target bindTarget) (net.Listener, error) {
	if target.network != "unix" {
		ln, err := net.Listen(target.network, target.address)
		if err != nil {
			return nil, fmt.Errorf("listening on %s: %w", target, err)
		}
		return ln, nil
	}

	return listenUnix(target.address)
}

// listenUnix removes a stale socket file and binds with a zero umask so the
// socket is reachable by every local user. The previous umask is restored
// whatever the outcome.
func listenUnix(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket %s: %w", path, err)
	}

	previous := setUmask(0)
	defer setUmask(previous)

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}
	return ln, nil
}
