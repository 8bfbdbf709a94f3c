package server

import (
	"crypto/tls"
	"errors"
	"fmt"
)

// ErrIncompleteKeyPair is returned when only one of the certificate and
// key files is configured.
var ErrIncompleteKeyPair = errors.New("server: tls_cert and tls_key must both be set")

// TLSConfig names the PEM files the desktop is served with.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

// LoadCertificates reads the key pair.
func (c *TLSConfig) LoadCertificates() ([]tls.Certificate, error) {
	if c.CertFile == "" || c.KeyFile == "" {
		return nil, ErrIncompleteKeyPair
	}
	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load key pair %s: %w", c.CertFile, err)
	}
	return []tls.Certificate{cert}, nil
}

// ServerTLSConfig returns a TLS 1.3 configuration offering HTTP/2.
func ServerTLSConfig(certificates []tls.Certificate) *tls.Config {
	return &tls.Config{
		Certificates:     certificates,
		MinVersion:       tls.VersionTLS13,
		CurvePreferences: []tls.CurveID{tls.X25519, tls.CurveP256},
		NextProtos:       []string{"h2", "http/1.1"},
	}
}
