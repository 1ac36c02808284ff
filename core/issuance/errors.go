package issuance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when the request fails validation before
	// any external work happens.
	ErrInvalidRequest = errors.New("invalid issuance request")

	// ErrDNS01Required is returned when a request includes a wildcard domain
	// but asks for an HTTP-01 challenge. The rule is checked before the
	// external ACME client is ever invoked.
	ErrDNS01Required = errors.New("wildcard domains require a DNS-01 challenge")

	// ErrPreflight is returned when a pre-submission environment check fails.
	ErrPreflight = errors.New("preflight check failed")

	// ErrPropagationTimeout is returned when a published TXT record does not
	// become visible within the polling budget.
	ErrPropagationTimeout = errors.New("TXT record propagation timed out")
)

// Stage names the phase of the issuance flow an error occurred in, so a
// failure can be reported against the step the operator was on.
type Stage string

const (
	StageCollecting Stage = "collecting"
	StageCA         Stage = "ca_selection"
	StageChallenge  Stage = "challenge_selection"
	StagePreflight  Stage = "preflight"
	StageSubmitting Stage = "submitting"
)

// StageError wraps a failure with the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
