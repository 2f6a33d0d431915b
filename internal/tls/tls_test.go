package tls

import (
	stdtls "crypto/tls"
	"testing"
)

func TestGenerateSelfSignedCert(t *testing.T) {
	t.Parallel()

	cert, err := GenerateSelfSignedCert()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert == nil || len(cert.Certificate) == 0 {
		t.Fatal("expected certificate data")
	}
}

func TestLoadOrGenerate_SelfSigned(t *testing.T) {
	t.Parallel()

	cfg, err := LoadOrGenerate("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("certificates: got %d, want 1", len(cfg.Certificates))
	}
	if cfg.MinVersion != stdtls.VersionTLS12 {
		t.Errorf("MinVersion: got %x, want TLS 1.2", cfg.MinVersion)
	}
	if len(cfg.NextProtos) == 0 || cfg.NextProtos[0] != "h2" {
		t.Errorf("NextProtos: got %v, want h2 first", cfg.NextProtos)
	}
}

func TestLoadOrGenerate_MissingFiles(t *testing.T) {
	t.Parallel()

	if _, err := LoadOrGenerate("/nonexistent/cert.pem", "/nonexistent/key.pem"); err == nil {
		t.Error("expected error for missing certificate files")
	}
}
