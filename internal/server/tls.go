// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/MKhiriev/go-http-frame/internal/logger"
	"github.com/MKhiriev/go-http-frame/internal/metrics"
)

// Certs is a PEM encoded certificate chain and private key. An empty half
// keeps the half currently in use.
type Certs struct {
	Cert []byte
	Key  []byte
}

// certStore holds the credential served by the TLS listener. Handshakes read
// it without locking; SetCerts swaps it atomically.
type certStore struct {
	current atomic.Pointer[tls.Certificate]

	mu      sync.Mutex
	certPEM []byte
	keyPEM  []byte

	metrics *metrics.Collector
	logger  *logger.Logger
}

func newCertStore(metrics *metrics.Collector, logger *logger.Logger) *certStore {
	return &certStore{
		metrics: metrics,
		logger:  logger,
	}
}

// load reads the certificate and key files. It is used once at startup,
// where a failure is fatal.
func (s *certStore) load(certFile, keyFile string) error {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return fmt.Errorf("reading certificate %s: %w", certFile, err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return fmt.Errorf("reading key %s: %w", keyFile, err)
	}

	return s.SetCerts(Certs{Cert: certPEM, Key: keyPEM})
}

// SetCerts replaces the served credential. When the new pair is invalid the
// previous credential stays in place and the error is returned.
func (s *certStore) SetCerts(certs Certs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	certPEM, keyPEM := certs.Cert, certs.Key
	if len(certPEM) == 0 {
		certPEM = s.certPEM
	}
	if len(keyPEM) == 0 {
		keyPEM = s.keyPEM
	}

	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	s.metrics.CertReloaded(err)
	if err != nil {
		s.logger.Warn().Err(err).Msg("TLS credentials rejected, keeping the current certificate")
		return fmt.Errorf("%w: %w", ErrInvalidCertificate, err)
	}

	s.certPEM, s.keyPEM = certPEM, keyPEM
	s.current.Store(&pair)
	s.logCertificate(&pair)
	return nil
}

// GetCertificate is meant for [tls.Config.GetCertificate].
func (s *certStore) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cert := s.current.Load()
	if cert == nil {
		return nil, errNoCertificate
	}
	return cert, nil
}

func (s *certStore) logCertificate(pair *tls.Certificate) {
	leaf := pair.Leaf
	if leaf == nil && len(pair.Certificate) > 0 {
		parsed, err := x509.ParseCertificate(pair.Certificate[0])
		if err != nil {
			return
		}
		leaf = parsed
	}
	if leaf == nil {
		return
	}

	s.logger.Info().
		Str("subject", leaf.Subject.String()).
		Time("not_after", leaf.NotAfter).
		Msg("TLS certificate loaded")
}
