package domainlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrLocked is returned when another operation holds the lock for a domain.
var ErrLocked = errors.New("domain is locked by another operation")

// Lock is a held per-domain advisory lock. Issuance and renewal acquire one
// before invoking the external ACME client so two invocations cannot race on
// the same domain name.
type Lock struct {
	path     string
	released bool
}

// Acquire takes the advisory lock for domain under dir. The lock is a file
// created with O_EXCL holding the owner PID; a pre-existing file means some
// other operation is in flight and Acquire fails with ErrLocked. Stale locks
// are not broken automatically; the operator removes them.
func Acquire(dir, domain string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	path := filepath.Join(dir, fileSegment(domain)+".lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if os.IsExist(err) {
			holder := ""
			if pid, readErr := os.ReadFile(path); readErr == nil {
				holder = strings.TrimSpace(string(pid))
			}
			if holder != "" {
				return nil, fmt.Errorf("%w: %s (held by pid %s)", ErrLocked, domain, holder)
			}
			return nil, fmt.Errorf("%w: %s", ErrLocked, domain)
		}
		return nil, fmt.Errorf("acquire lock for %s: %w", domain, err)
	}

	_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	cerr := f.Close()
	if werr != nil || cerr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write lock for %s: %w", domain, errors.Join(werr, cerr))
	}

	return &Lock{path: path}, nil
}

// Release drops the lock. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.released {
		return nil
	}
	l.released = true
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// AcquireAll locks every domain in order, rolling back already-acquired locks
// if any acquisition fails.
func AcquireAll(dir string, domains []string) ([]*Lock, error) {
	locks := make([]*Lock, 0, len(domains))
	for _, d := range domains {
		l, err := Acquire(dir, d)
		if err != nil {
			ReleaseAll(locks)
			return nil, err
		}
		locks = append(locks, l)
	}
	return locks, nil
}

// ReleaseAll releases the given locks, ignoring individual release errors.
func ReleaseAll(locks []*Lock) {
	for _, l := range locks {
		_ = l.Release()
	}
}

// fileSegment maps a domain to a safe lock file name. Wildcard labels become
// an underscore so "*.example.com" and "example.com" lock independently.
func fileSegment(domain string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(domain) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
