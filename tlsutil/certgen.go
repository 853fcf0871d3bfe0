package tlsutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"
)

// KeyPair is a certificate with its private key, in parsed and PEM form.
type KeyPair struct {
	Cert    *x509.Certificate
	CertPEM []byte
	Key     ed25519.PrivateKey
	KeyPEM  []byte
}

// CA is a certificate authority. Robots ship certificates issued by their
// maker's CA; a generated CA stands in for it in simulators and tests.
type CA struct {
	KeyPair
}

// GenerateCA creates a self-signed CA. An empty commonName becomes
// "robocore-ca"; a non-positive validity becomes ten years.
func GenerateCA(commonName string, validity time.Duration) (*CA, error) {
	if strings.TrimSpace(commonName) == "" {
		commonName = "robocore-ca"
	}
	if validity <= 0 {
		validity = 10 * 365 * 24 * time.Hour
	}
	tmpl := &x509.Certificate{
		Subject:               pkix.Name{CommonName: commonName},
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		MaxPathLenZero:        true,
	}
	kp, err := issue(tmpl, validity, nil)
	if err != nil {
		return nil, fmt.Errorf("ca: %w", err)
	}
	return &CA{KeyPair: kp}, nil
}

// IssueServer issues a certificate a robot presents for hosts, usually the
// service authorities it answers for. IP literals become IP SANs. A
// non-positive validity becomes one year.
func (ca *CA) IssueServer(hosts []string, validity time.Duration) (KeyPair, error) {
	if ca == nil {
		return KeyPair{}, fmt.Errorf("server certificate: ca is nil")
	}
	if validity <= 0 {
		validity = 365 * 24 * time.Hour
	}
	tmpl := &x509.Certificate{
		Subject:     pkix.Name{CommonName: "robot"},
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		KeyUsage:    x509.KeyUsageDigitalSignature,
	}
	for _, h := range hosts {
		h = strings.TrimSpace(h)
		switch ip := net.ParseIP(h); {
		case h == "":
		case ip != nil:
			tmpl.IPAddresses = append(tmpl.IPAddresses, ip)
		default:
			tmpl.DNSNames = append(tmpl.DNSNames, h)
		}
	}
	if len(tmpl.DNSNames) == 0 && len(tmpl.IPAddresses) == 0 {
		return KeyPair{}, fmt.Errorf("server certificate: no hosts")
	}
	kp, err := issue(tmpl, validity, &ca.KeyPair)
	if err != nil {
		return KeyPair{}, fmt.Errorf("server certificate: %w", err)
	}
	return kp, nil
}

// ServerConfig returns a TLS server configuration presenting kp.
func ServerConfig(kp KeyPair) (*tls.Config, error) {
	cert, err := tls.X509KeyPair(kp.CertPEM, kp.KeyPEM)
	if err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}
	return &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}, nil
}

// issue signs tmpl with parent, or self-signs when parent is nil.
func issue(tmpl *x509.Certificate, validity time.Duration, parent *KeyPair) (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate serial: %w", err)
	}
	now := time.Now().UTC()
	tmpl.SerialNumber = serial
	tmpl.NotBefore = now.Add(-time.Hour)
	tmpl.NotAfter = now.Add(validity)

	signer, signerKey := tmpl, priv
	if parent != nil {
		signer, signerKey = parent.Cert, parent.Key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, signer, pub, signerKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return KeyPair{}, fmt.Errorf("parse certificate: %w", err)
	}
	keyDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return KeyPair{}, fmt.Errorf("marshal key: %w", err)
	}
	return KeyPair{
		Cert:    cert,
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		Key:     priv,
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	}, nil
}
