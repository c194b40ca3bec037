//go:build unix

package server

import (
	"bufio"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/MKhiriev/go-http-frame/internal/config"
	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/models"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

// newUnixServer builds a server bound to a fresh socket. The server is
// drained when the test ends.
func newUnixServer(t *testing.T, mutate func(cfg *config.StructuredConfig)) (*Server, string) {
	t.Helper()

	path := filepath.Join(shortTempDir(t), "s.sock")
	cfg := *config.Defaults()
	cfg.Server.File = path
	cfg.Server.HandleErrors = true
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := New(cfg, logger.Nop(), Options{})
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, path
}

func unixClient(path string) *resty.Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", path)
		},
	}
	return resty.New().SetTransport(transport).SetBaseURL("http://unix")
}

func decodeEnvelope(t *testing.T, body []byte) models.Envelope {
	t.Helper()
	var env models.Envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func dialUnix(t *testing.T, path string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.Dial("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, bufio.NewReader(conn)
}

func writeGet(t *testing.T, conn net.Conn, target string) {
	t.Helper()
	_, err := fmt.Fprintf(conn, "GET %s HTTP/1.1\r\nHost: unix\r\n\r\n", target)
	require.NoError(t, err)
}

func readResponse(t *testing.T, reader *bufio.Reader) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.ReadResponse(reader, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// connOpen reports whether the peer has kept conn open for a short while.
func connOpen(conn net.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	defer conn.SetReadDeadline(time.Time{})

	_, err := conn.Read(make([]byte, 1))
	var netErr net.Error
	return err != nil && errors.As(err, &netErr) && netErr.Timeout()
}

// connClosed waits for the peer to close conn.
func connClosed(conn net.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := conn.Read(make([]byte, 1))
	var netErr net.Error
	return err != nil && !(errors.As(err, &netErr) && netErr.Timeout())
}

// generateCert returns a self-signed certificate for cn and its key.
func generateCert(t *testing.T, cn string) (certPEM, keyPEM []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM
}

// peerCommonName performs a TLS handshake over the socket and returns the
// common name of the certificate the server presented.
func peerCommonName(path string) (string, error) {
	conn, err := tls.Dial("unix", path, &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         "localhost",
	})
	if err != nil {
		return "", err
	}
	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return "", fmt.Errorf("no peer certificate")
	}
	return certs[0].Subject.CommonName, nil
}
