package inventory

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/certward/certward/core/certificate"
	"github.com/certward/certward/core/logger"
	"github.com/certward/certward/core/settings"
)

// ErrNotFound is returned by Find when neither store owns the name.
var ErrNotFound = errors.New("certificate not found")

// Store layout shared with the lifecycle workflows: one subdirectory per
// certificate name, holding the chain and key under fixed file names.
const (
	FullchainFile = "fullchain.pem"
	PrivkeyFile   = "privkey.pem"
	MetadataFile  = "metadata.json"
)

// Anomaly is an inventory entry that could not be parsed. Anomalies are
// reported alongside certificates, never silently dropped.
type Anomaly struct {
	Name string
	Path string
	Err  error
}

// Collision flags a certificate name owned by both stores at once. The
// operator must resolve it; the inventory only warns.
type Collision struct {
	Name       string
	ACMEPath   string
	CustomPath string
}

// Snapshot is a point-in-time view of both certificate stores. It is freshly
// recomputed on every ListAll call and holds no independent copy of truth.
type Snapshot struct {
	Certificates []certificate.Certificate
	Anomalies    []Anomaly
	Collisions   []Collision
	TakenAt      time.Time
}

// Service derives the certificate inventory from the ACME-managed store and
// the custom-import store.
type Service struct {
	acmeDir   string
	customDir string
	settings  *settings.Store
	now       func() time.Time
	log       *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger overrides the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates an inventory service over the two store directories.
func New(acmeDir, customDir string, st *settings.Store, opts ...Option) *Service {
	s := &Service{
		acmeDir:   acmeDir,
		customDir: customDir,
		settings:  st,
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAll scans both stores, parses every entry and returns the snapshot
// sorted ascending by days left, soonest-expiring first. That ordering is
// load-bearing for operator triage. Missing store directories yield an empty
// result, not an error.
func (s *Service) ListAll(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{TakenAt: s.now()}
	thresholds := s.settings.Load().Thresholds

	acmeNames := make(map[string]string)

	for _, src := range []struct {
		dir    string
		source certificate.Source
	}{
		{s.acmeDir, certificate.SourceACME},
		{s.customDir, certificate.SourceCustom},
	} {
		entries, err := readStoreDir(src.dir)
		if err != nil {
			return Snapshot{}, err
		}
		for _, name := range entries {
			if err := ctx.Err(); err != nil {
				return Snapshot{}, err
			}

			chainPath := filepath.Join(src.dir, name, FullchainFile)
			cert, err := certificate.ParseFile(chainPath, snap.TakenAt)
			if err != nil {
				snap.Anomalies = append(snap.Anomalies, Anomaly{Name: name, Path: chainPath, Err: err})
				s.log.Warn("unparsable certificate in store",
					logger.Cert(name), "path", chainPath, logger.Error(err))
				continue
			}

			cert.Name = name
			cert.Source = src.source
			cert.ClassifyWith(thresholds)

			switch src.source {
			case certificate.SourceACME:
				acmeNames[name] = chainPath
			case certificate.SourceCustom:
				if acmePath, dup := acmeNames[name]; dup {
					snap.Collisions = append(snap.Collisions, Collision{
						Name: name, ACMEPath: acmePath, CustomPath: chainPath,
					})
				}
			}

			snap.Certificates = append(snap.Certificates, *cert)
		}
	}

	sort.SliceStable(snap.Certificates, func(i, j int) bool {
		a, b := snap.Certificates[i], snap.Certificates[j]
		if a.DaysLeft != b.DaysLeft {
			return a.DaysLeft < b.DaysLeft
		}
		return a.Name < b.Name
	})

	return snap, nil
}

// Find returns the inventory entry with the given name, preferring the ACME
// store on a collision.
func (s *Service) Find(ctx context.Context, name string) (*certificate.Certificate, error) {
	snap, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.Certificates {
		if snap.Certificates[i].Name == name {
			return &snap.Certificates[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q in either store", ErrNotFound, name)
}

// readStoreDir lists the per-certificate subdirectories of a store. A missing
// store is an empty store.
func readStoreDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read certificate store %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		// Dot-prefixed directories are import staging leftovers, not entries.
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
