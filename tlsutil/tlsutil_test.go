package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRootsVerifyIssuedServer(t *testing.T) {
	ca, err := GenerateCA("", time.Hour)
	if err != nil {
		t.Fatalf("generate ca: %v", err)
	}
	issued, err := ca.IssueServer([]string{"api.spot.robot", "127.0.0.1"}, time.Hour)
	if err != nil {
		t.Fatalf("issue server: %v", err)
	}

	path := filepath.Join(t.TempDir(), "roots.pem")
	if err := os.WriteFile(path, ca.CertPEM, 0o600); err != nil {
		t.Fatalf("write roots: %v", err)
	}
	pool, err := LoadRoots(path)
	if err != nil {
		t.Fatalf("load roots: %v", err)
	}

	pair, err := tls.X509KeyPair(issued.CertPEM, issued.KeyPEM)
	if err != nil {
		t.Fatalf("key pair: %v", err)
	}
	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		t.Fatalf("parse leaf: %v", err)
	}
	if _, err := leaf.Verify(x509.VerifyOptions{Roots: pool, DNSName: "api.spot.robot"}); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := leaf.Verify(x509.VerifyOptions{Roots: pool, DNSName: "other.robot"}); err == nil {
		t.Fatal("expected hostname mismatch")
	}

	cfg := ClientConfig(pool, "api.spot.robot")
	if cfg.ServerName != "api.spot.robot" || cfg.RootCAs != pool || cfg.MinVersion != tls.VersionTLS12 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestParseRootsRequiresCertificate(t *testing.T) {
	ca, err := GenerateCA("", time.Hour)
	if err != nil {
		t.Fatalf("generate ca: %v", err)
	}
	if _, err := ParseRoots(ca.KeyPEM); err == nil {
		t.Fatal("expected error for a key-only bundle")
	}
	if _, err := ParseRoots(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
	if _, err := LoadRoots(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestIssueServerRequiresHosts(t *testing.T) {
	ca, err := GenerateCA("sim-ca", 0)
	if err != nil {
		t.Fatalf("generate ca: %v", err)
	}
	if ca.Cert.Subject.CommonName != "sim-ca" || !ca.Cert.IsCA {
		t.Fatalf("unexpected ca %+v", ca.Cert.Subject)
	}
	if _, err := ca.IssueServer([]string{" ", ""}, 0); err == nil {
		t.Fatal("expected error without hosts")
	}
	var nilCA *CA
	if _, err := nilCA.IssueServer([]string{"robot"}, 0); err == nil {
		t.Fatal("expected error for nil ca")
	}
	kp, err := ca.IssueServer([]string{"10.0.0.3"}, 0)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if len(kp.Cert.IPAddresses) != 1 || len(kp.Cert.DNSNames) != 0 {
		t.Fatalf("unexpected SANs %v %v", kp.Cert.IPAddresses, kp.Cert.DNSNames)
	}
	cfg, err := ServerConfig(kp)
	if err != nil || len(cfg.Certificates) != 1 {
		t.Fatalf("server config: %v", err)
	}
}
