package tool

import (
	"crypto/tls"
	"path/filepath"
	"testing"
)

func TestEnsureSelfSigned(t *testing.T) {
	dir := t.TempDir()
	files := TlsFiles{
		KeyFile:  filepath.Join(dir, "key.pem"),
		CertFile: filepath.Join(dir, "cert.pem"),
	}

	generated, err := files.EnsureSelfSigned("inkpanel", "Inkpanel Server")
	if err != nil {
		t.Fatal(err)
	}
	if !generated {
		t.Fatal("missing files were not generated")
	}
	if _, err = tls.LoadX509KeyPair(files.CertFile, files.KeyFile); err != nil {
		t.Fatalf("generated pair does not load: %v", err)
	}

	generated, err = files.EnsureSelfSigned("inkpanel", "Inkpanel Server")
	if err != nil || generated {
		t.Errorf("existing pair regenerated: %t, %v", generated, err)
	}
}
