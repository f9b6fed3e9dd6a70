package tool

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

// TlsFiles locates the PEM key pair served by the api.
type TlsFiles struct {
	KeyFile  string
	CertFile string
}

// EnsureSelfSigned generates a self-signed key pair when either file is
// missing. It reports whether new files were written.
func (f TlsFiles) EnsureSelfSigned(organization, commonName string) (bool, error) {
	for _, filename := range []string{f.KeyFile, f.CertFile} {
		exists, err := IsFileExists(filename)
		if err != nil {
			return false, fmt.Errorf("tls: unable to access %s: %w", filename, err)
		}
		if !exists {
			return true, f.generate(organization, commonName, panelHostnames())
		}
	}
	return false, nil
}

func (f TlsFiles) generate(organization, commonName string, hostnames []string) error {
	notBefore := time.Now()
	notAfter := notBefore.AddDate(10, 0, 0)

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("tls: generate key: %w", err)
	}
	if err = writeKey(f.KeyFile, key); err != nil {
		return err
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("tls: serial number: %w", err)
	}
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{organization},
			CommonName:   commonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	for _, h := range hostnames {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("tls: create certificate: %w", err)
	}
	return writePem(f.CertFile, 0644, &pem.Block{Type: "CERTIFICATE", Bytes: der})
}

// panelHostnames lists the names a wall panel is usually reached by on the
// local network.
func panelHostnames() []string {
	hostnames := []string{"localhost", "127.0.0.1"}
	if h, err := os.Hostname(); err == nil && h != "" {
		hostnames = append(hostnames, h, h+".local")
	}
	return hostnames
}

func writeKey(filename string, key *ecdsa.PrivateKey) error {
	b, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return fmt.Errorf("tls: marshal key: %w", err)
	}
	return writePem(filename, 0600, &pem.Block{Type: "EC PRIVATE KEY", Bytes: b})
}

func writePem(filename string, perm os.FileMode, block *pem.Block) error {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	if err = pem.Encode(file, block); err != nil {
		file.Close()
		return fmt.Errorf("tls: write %s: %w", filename, err)
	}
	return file.Close()
}
