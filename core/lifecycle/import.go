package lifecycle

import (
	"context"
	"crypto"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/certcrypto"
	"golang.org/x/crypto/pkcs12"

	"github.com/certward/certward/core/certificate"
	"github.com/certward/certward/core/history"
	"github.com/certward/certward/core/inventory"
	"github.com/certward/certward/core/logger"
)

// ImportRequest carries operator-supplied certificate material. Either the
// PEM pair or a PKCS#12 archive is provided, not both.
type ImportRequest struct {
	// Name labels the entry in the custom store.
	Name string

	CertPEM []byte
	KeyPEM  []byte

	// PKCS12 is a .pfx/.p12 archive, transcoded to PEM before validation.
	PKCS12   []byte
	Password string

	// Overwrite replaces an existing entry of the same name.
	Overwrite bool
}

// ImportResult describes the stored entry.
type ImportResult struct {
	Name        string
	Path        string
	Certificate *certificate.Certificate
}

// importMetadata is persisted next to the imported pair.
type importMetadata struct {
	Name       string    `json:"name"`
	ImportedAt time.Time `json:"imported_at"`
	Source     string    `json:"source"`
}

// nameRegex keeps store directory names to safe hostname-ish labels.
var nameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9.*_-]*[a-z0-9])?$`)

// Import validates an operator-supplied bundle and stores it in the custom
// store. Validation is ordered so the first problem reported is the most
// fundamental: name, certificate, key, then the pair check. The write is
// staged in a temporary directory and renamed into place, so a failing import
// leaves no partial entry and never touches an existing one.
func (m *Manager) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" || !nameRegex.MatchString(name) {
		return nil, fmt.Errorf("%w: %q is not a usable name", ErrInvalidImport, req.Name)
	}

	certPEM, keyPEM := req.CertPEM, req.KeyPEM
	if len(req.PKCS12) > 0 {
		var err error
		certPEM, keyPEM, err = transcodePKCS12(req.PKCS12, req.Password)
		if err != nil {
			return nil, err
		}
	}

	if len(certPEM) == 0 {
		return nil, fmt.Errorf("%w: no certificate provided", ErrInvalidImport)
	}
	parsed, err := certificate.Parse(certPEM, m.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	if len(keyPEM) == 0 {
		return nil, fmt.Errorf("%w: no private key provided", ErrInvalidImport)
	}
	key, err := certcrypto.ParsePEMPrivateKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %w", ErrInvalidImport, err)
	}

	if err := checkPair(certPEM, key); err != nil {
		return nil, err
	}

	dest := filepath.Join(m.customDir, name)
	if _, err := os.Stat(dest); err == nil && !req.Overwrite {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}

	if err := os.MkdirAll(m.customDir, 0o700); err != nil {
		return nil, fmt.Errorf("create custom store: %w", err)
	}

	staging, err := os.MkdirTemp(m.customDir, "."+name+"-")
	if err != nil {
		return nil, fmt.Errorf("stage import: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	meta, err := json.MarshalIndent(importMetadata{
		Name:       name,
		ImportedAt: m.now().UTC(),
		Source:     string(certificate.SourceCustom),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal import metadata: %w", err)
	}

	files := []struct {
		name string
		data []byte
		mode os.FileMode
	}{
		{inventory.FullchainFile, certPEM, 0o644},
		{inventory.PrivkeyFile, keyPEM, 0o600},
		{inventory.MetadataFile, append(meta, '\n'), 0o644},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(staging, f.name), f.data, f.mode); err != nil {
			return nil, fmt.Errorf("stage %s: %w", f.name, err)
		}
	}

	if req.Overwrite {
		if err := os.RemoveAll(dest); err != nil {
			return nil, fmt.Errorf("replace %s: %w", name, err)
		}
	}
	if err := os.Rename(staging, dest); err != nil {
		return nil, fmt.Errorf("store import %s: %w", name, err)
	}

	parsed.Name = name
	parsed.Source = certificate.SourceCustom
	parsed.Path = filepath.Join(dest, inventory.FullchainFile)
	parsed.ClassifyWith(m.settings.Load().Thresholds)

	detail := fmt.Sprintf("domains=%s expires=%s",
		strings.Join(parsed.Domains, ","), parsed.NotAfter.Format("2006-01-02"))
	if herr := m.history.Append(name, history.KindImported, detail); herr != nil {
		m.log.Error("could not record import in history", logger.Cert(name), logger.Error(herr))
	}

	m.log.Info("certificate imported", "name", name, "domains", parsed.Domains)
	return &ImportResult{Name: name, Path: parsed.Path, Certificate: parsed}, nil
}

// checkPair verifies the private key pairs with the leaf's public key.
func checkPair(certPEM []byte, key crypto.PrivateKey) error {
	certs, err := certcrypto.ParsePEMBundle(certPEM)
	if err != nil || len(certs) == 0 {
		return fmt.Errorf("%w: unreadable certificate bundle", ErrInvalidImport)
	}
	leaf := certs[0]

	signer, ok := key.(crypto.Signer)
	if !ok {
		return fmt.Errorf("%w: unsupported private key type %T", ErrInvalidImport, key)
	}
	pub, ok := leaf.PublicKey.(interface{ Equal(crypto.PublicKey) bool })
	if !ok || !pub.Equal(signer.Public()) {
		return ErrKeyMismatch
	}
	return nil
}

// transcodePKCS12 converts a PKCS#12 archive into the PEM pair the store
// holds: private key first block set, certificates ordered as found with the
// leaf expected first.
func transcodePKCS12(archive []byte, password string) (certPEM, keyPEM []byte, err error) {
	blocks, err := pkcs12.ToPEM(archive, password)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decode PKCS#12: %w", ErrInvalidImport, err)
	}

	for _, b := range blocks {
		// ToPEM leaves headers that pem parsers reject.
		b.Headers = nil
		switch {
		case strings.Contains(b.Type, "PRIVATE KEY"):
			keyPEM = append(keyPEM, pem.EncodeToMemory(b)...)
		case b.Type == "CERTIFICATE":
			certPEM = append(certPEM, pem.EncodeToMemory(b)...)
		}
	}

	if len(certPEM) == 0 || len(keyPEM) == 0 {
		return nil, nil, fmt.Errorf("%w: PKCS#12 archive is missing a certificate or key", ErrInvalidImport)
	}
	return certPEM, keyPEM, nil
}
