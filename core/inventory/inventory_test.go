package inventory_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certward/certward/core/certificate"
	"github.com/certward/certward/core/inventory"
	"github.com/certward/certward/core/settings"
	"github.com/certward/certward/core/status"
)

func mintSelfSigned(t *testing.T, domains []string, notAfter time.Time) []byte {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: domains[0]},
		DNSNames:     domains,
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func writeStoreEntry(t *testing.T, storeDir, name string, chain []byte) {
	t.Helper()
	dir := filepath.Join(storeDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, inventory.FullchainFile), chain, 0o600))
}

func newService(t *testing.T) (*inventory.Service, string, string) {
	t.Helper()
	root := t.TempDir()
	acmeDir := filepath.Join(root, "acme")
	customDir := filepath.Join(root, "custom")
	st := settings.NewStore(filepath.Join(root, "settings.json"))
	return inventory.New(acmeDir, customDir, st), acmeDir, customDir
}

func TestListAllEmptyStores(t *testing.T) {
	svc, _, _ := newService(t)

	snap, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Certificates)
	assert.Empty(t, snap.Anomalies)
	assert.False(t, snap.TakenAt.IsZero())
}

func TestListAllSortsByDaysLeft(t *testing.T) {
	svc, acmeDir, customDir := newService(t)
	now := time.Now()

	writeStoreEntry(t, acmeDir, "far.example.com", mintSelfSigned(t, []string{"far.example.com"}, now.Add(80*24*time.Hour)))
	writeStoreEntry(t, acmeDir, "soon.example.com", mintSelfSigned(t, []string{"soon.example.com"}, now.Add(3*24*time.Hour)))
	writeStoreEntry(t, customDir, "mid.example.org", mintSelfSigned(t, []string{"mid.example.org"}, now.Add(20*24*time.Hour)))

	snap, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Certificates, 3)

	names := []string{snap.Certificates[0].Name, snap.Certificates[1].Name, snap.Certificates[2].Name}
	assert.Equal(t, []string{"soon.example.com", "mid.example.org", "far.example.com"}, names)

	assert.Equal(t, certificate.SourceACME, snap.Certificates[0].Source)
	assert.Equal(t, certificate.SourceCustom, snap.Certificates[1].Source)

	// Statuses come from the default thresholds {7, 14, 30}.
	assert.Equal(t, status.StatusCritical, snap.Certificates[0].Status)
	assert.Equal(t, status.StatusNotice, snap.Certificates[1].Status)
	assert.Equal(t, status.StatusValid, snap.Certificates[2].Status)
}

func TestListAllReportsAnomalies(t *testing.T) {
	svc, acmeDir, _ := newService(t)

	writeStoreEntry(t, acmeDir, "good.example.com", mintSelfSigned(t, []string{"good.example.com"}, time.Now().Add(60*24*time.Hour)))
	writeStoreEntry(t, acmeDir, "broken.example.com", []byte("not a certificate"))

	snap, err := svc.ListAll(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Certificates, 1)
	require.Len(t, snap.Anomalies, 1)
	assert.Equal(t, "broken.example.com", snap.Anomalies[0].Name)
	assert.ErrorIs(t, snap.Anomalies[0].Err, certificate.ErrParse)
}

func TestListAllIgnoresStagingLeftovers(t *testing.T) {
	svc, _, customDir := newService(t)

	writeStoreEntry(t, customDir, "site.example.com", mintSelfSigned(t, []string{"site.example.com"}, time.Now().Add(60*24*time.Hour)))
	// An interrupted import leaves a dot-prefixed staging directory behind.
	writeStoreEntry(t, customDir, ".site.example.com-421337", []byte("partial write"))

	snap, err := svc.ListAll(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Certificates, 1)
	assert.Equal(t, "site.example.com", snap.Certificates[0].Name)
	assert.Empty(t, snap.Anomalies)
}

func TestListAllFlagsCollisions(t *testing.T) {
	svc, acmeDir, customDir := newService(t)
	chain := mintSelfSigned(t, []string{"dup.example.com"}, time.Now().Add(30*24*time.Hour))

	writeStoreEntry(t, acmeDir, "dup.example.com", chain)
	writeStoreEntry(t, customDir, "dup.example.com", chain)

	snap, err := svc.ListAll(context.Background())
	require.NoError(t, err)

	assert.Len(t, snap.Certificates, 2)
	require.Len(t, snap.Collisions, 1)
	assert.Equal(t, "dup.example.com", snap.Collisions[0].Name)
}

func TestThresholdChangeReflectsImmediately(t *testing.T) {
	root := t.TempDir()
	acmeDir := filepath.Join(root, "acme")
	st := settings.NewStore(filepath.Join(root, "settings.json"))
	svc := inventory.New(acmeDir, filepath.Join(root, "custom"), st)

	writeStoreEntry(t, acmeDir, "a.example.com", mintSelfSigned(t, []string{"a.example.com"}, time.Now().Add(20*24*time.Hour)))

	snap, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.StatusNotice, snap.Certificates[0].Status)

	s := settings.Default()
	s.Thresholds = status.Thresholds{Critical: 10, Warning: 25, Notice: 45}
	require.NoError(t, st.Save(s))

	snap, err = svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status.StatusWarning, snap.Certificates[0].Status, "new thresholds apply on next read without migration")
}

func TestFind(t *testing.T) {
	svc, acmeDir, _ := newService(t)
	writeStoreEntry(t, acmeDir, "a.example.com", mintSelfSigned(t, []string{"a.example.com"}, time.Now().Add(30*24*time.Hour)))

	cert, err := svc.Find(context.Background(), "a.example.com")
	require.NoError(t, err)
	assert.Equal(t, "a.example.com", cert.Name)

	_, err = svc.Find(context.Background(), "missing.example.com")
	assert.Error(t, err)
}
