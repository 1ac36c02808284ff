package status

import (
	"errors"
	"fmt"
)

// Status describes how close a certificate is to expiry.
type Status string

const (
	StatusValid    Status = "valid"
	StatusNotice   Status = "notice"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusExpired  Status = "expired"
)

// severity ranks statuses for comparison. Higher means more urgent.
var severity = map[Status]int{
	StatusValid:    0,
	StatusNotice:   1,
	StatusWarning:  2,
	StatusCritical: 3,
	StatusExpired:  4,
}

// Severity returns the urgency rank of the status, from 0 (valid) to 4 (expired).
func (s Status) Severity() int {
	return severity[s]
}

// AtLeast reports whether s is at least as urgent as other.
func (s Status) AtLeast(other Status) bool {
	return s.Severity() >= other.Severity()
}

// ErrInvalidThresholds is returned when thresholds are not strictly increasing.
var ErrInvalidThresholds = errors.New("invalid alert thresholds")

// Thresholds holds the expiry boundaries, in days, that drive classification.
// They must satisfy 0 <= Critical < Warning < Notice.
type Thresholds struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Notice   int `json:"notice"`
}

// DefaultThresholds returns the thresholds used when no settings are persisted.
func DefaultThresholds() Thresholds {
	return Thresholds{Critical: 7, Warning: 14, Notice: 30}
}

// Validate checks the strict ordering invariant.
func (t Thresholds) Validate() error {
	if t.Critical < 0 {
		return fmt.Errorf("%w: critical must not be negative, got %d", ErrInvalidThresholds, t.Critical)
	}
	if t.Critical >= t.Warning {
		return fmt.Errorf("%w: critical (%d) must be below warning (%d)", ErrInvalidThresholds, t.Critical, t.Warning)
	}
	if t.Warning >= t.Notice {
		return fmt.Errorf("%w: warning (%d) must be below notice (%d)", ErrInvalidThresholds, t.Warning, t.Notice)
	}
	return nil
}

// Classify maps days until expiry to a status. It is a pure function and the
// single place status is derived; callers re-evaluate it on every read so
// threshold changes take effect immediately.
//
// Rules are evaluated in order: negative days mean expired, then the critical,
// warning and notice boundaries are checked inclusively. Decreasing daysLeft
// never decreases severity.
func Classify(daysLeft int, t Thresholds) Status {
	switch {
	case daysLeft < 0:
		return StatusExpired
	case daysLeft <= t.Critical:
		return StatusCritical
	case daysLeft <= t.Warning:
		return StatusWarning
	case daysLeft <= t.Notice:
		return StatusNotice
	default:
		return StatusValid
	}
}
