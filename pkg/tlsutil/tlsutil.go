// Package tlsutil builds client TLS configurations for the bus transport.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"github.com/c360/fieldbridge/errors"
)

// ClientConfig describes the broker-facing TLS settings. CAFile is
// required when TLS is enabled; CertFile/KeyFile enable mutual TLS;
// InsecureSkipVerify supports self-signed deployments.
type ClientConfig struct {
	Enabled            bool   `yaml:"enabled"`
	CAFile             string `yaml:"ca_file"`
	CertFile           string `yaml:"cert_file"`
	KeyFile            string `yaml:"key_file"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	MinVersion         string `yaml:"min_version"`
}

// Load creates a tls.Config from the client configuration. It returns
// (nil, nil) when TLS is disabled.
func Load(cfg ClientConfig) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         parseTLSVersion(cfg.MinVersion),
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}

	// Start with the system pool so public CAs keep working alongside a
	// site-local CA.
	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		rootCAs = x509.NewCertPool()
	}

	if cfg.CAFile == "" && !cfg.InsecureSkipVerify {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "tlsutil", "Load",
			"CA certificate required when TLS is enabled")
	}

	if cfg.CAFile != "" {
		caPEM, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, errors.WrapFatal(err, "tlsutil", "Load",
				fmt.Sprintf("read CA file %s", cfg.CAFile))
		}
		if !rootCAs.AppendCertsFromPEM(caPEM) {
			return nil, errors.WrapFatal(
				fmt.Errorf("invalid PEM data"),
				"tlsutil", "Load",
				fmt.Sprintf("parse CA certificate from %s", cfg.CAFile))
		}
	}
	tlsConfig.RootCAs = rootCAs

	// Client certificate for mutual TLS is optional; both halves must be
	// present together.
	switch {
	case cfg.CertFile != "" && cfg.KeyFile != "":
		clientCert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, errors.WrapFatal(err, "tlsutil", "Load", "load client certificate")
		}
		tlsConfig.Certificates = []tls.Certificate{clientCert}
	case cfg.CertFile != "" || cfg.KeyFile != "":
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "tlsutil", "Load",
			"client certificate and key must be configured together")
	}

	return tlsConfig, nil
}

// parseTLSVersion converts version string to crypto/tls constant
// Returns tls.VersionTLS12 if empty or invalid
func parseTLSVersion(version string) uint16 {
	switch version {
	case "1.3":
		return tls.VersionTLS13
	case "1.2":
		return tls.VersionTLS12
	default:
		return tls.VersionTLS12
	}
}
