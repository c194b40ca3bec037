package server

import (
	"crypto/tls"
	"errors"
	stdlog "log"
	"net"
	"net/http"
	"time"

	"github.com/MKhiriev/go-http-frame/internal/logger"
)

// httpServer serves one listener. Shutdown is driven by the drain
// coordinator closing the listener and the connections, never by
// [http.Server.Shutdown], which would close idle keep-alive connections
// before in-flight requests finish.
type httpServer struct {
	server *http.Server
	tls    bool
	logger *logger.Logger
}

func newHTTPServer(handler http.Handler, connState func(net.Conn, http.ConnState), readHeaderTimeout time.Duration, logger *logger.Logger) *httpServer {
	return &httpServer{
		server: &http.Server{
			Handler:           handler,
			ConnState:         connState,
			ReadHeaderTimeout: readHeaderTimeout,
			ErrorLog:          stdlog.New(logger.Named("net/http"), "", 0),
		},
		logger: logger,
	}
}

// withTLS serves TLS using the credential returned by getCertificate on each
// handshake.
func (h *httpServer) withTLS(getCertificate func(*tls.ClientHelloInfo) (*tls.Certificate, error)) {
	h.tls = true
	h.server.TLSConfig = &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: getCertificate,
	}
}

// serve blocks until ln is closed. A closed listener is the normal end of
// serving and is not reported.
func (h *httpServer) serve(ln net.Listener) error {
	var err error
	if h.tls {
		err = h.server.ServeTLS(ln, "", "")
	} else {
		err = h.server.Serve(ln)
	}

	if err == nil || errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
