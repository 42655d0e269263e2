package config

import (
	"crypto/tls"
	"fmt"
	"os"
)

// ValidateTLSConfig validates the TLS configuration
func (c *Config) ValidateTLSConfig() error {
	tlsConfig := &c.Server.TLS

	switch tlsConfig.Mode {
	case "disabled", "":
		return nil
	case "server", "mutual":
		// continue validation below
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", tlsConfig.Mode)
	}

	if tlsConfig.CertFile == "" {
		return fmt.Errorf("certFile is required when TLS mode is '%s'", tlsConfig.Mode)
	}
	if tlsConfig.KeyFile == "" {
		return fmt.Errorf("keyFile is required when TLS mode is '%s'", tlsConfig.Mode)
	}
	if err := checkFileReadable(tlsConfig.CertFile, "certificate"); err != nil {
		return err
	}
	if err := checkFileReadable(tlsConfig.KeyFile, "private key"); err != nil {
		return err
	}

	if tlsConfig.Mode == "mutual" {
		if tlsConfig.CAFile == "" {
			return fmt.Errorf("caFile is required when TLS mode is 'mutual'")
		}
		if err := checkFileReadable(tlsConfig.CAFile, "CA certificate"); err != nil {
			return err
		}
		switch tlsConfig.ClientAuthPolicy {
		case "", "require", "request", "verify":
		default:
			return fmt.Errorf("invalid client auth policy: %s (must be 'require', 'request', or 'verify')", tlsConfig.ClientAuthPolicy)
		}
	}

	switch tlsConfig.MinVersion {
	case "", "1.2", "1.3":
	default:
		return fmt.Errorf("invalid TLS minimum version: %s (must be '1.2' or '1.3')", tlsConfig.MinVersion)
	}

	return nil
}

// TLSMinVersion maps the configured minimum version to a crypto/tls constant
func (t *TLSConfig) TLSMinVersion() uint16 {
	if t.MinVersion == "1.3" {
		return tls.VersionTLS13
	}
	return tls.VersionTLS12
}

// ClientAuthType maps the configured client auth policy to a crypto/tls constant
func (t *TLSConfig) ClientAuthType() tls.ClientAuthType {
	switch t.ClientAuthPolicy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

func checkFileReadable(path, label string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("cannot read %s file %s: %w", label, path, err)
	}
	return f.Close()
}
