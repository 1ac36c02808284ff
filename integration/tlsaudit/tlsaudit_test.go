package tlsaudit_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certward/certward/integration/tlsaudit"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestRunPollsUntilReady(t *testing.T) {
	var polls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		report := tlsaudit.Report{Host: "example.com", Status: "IN_PROGRESS"}
		if polls >= 3 {
			report.Status = "READY"
			report.Endpoints = []tlsaudit.Endpoint{
				{IPAddress: "192.0.2.10", Grade: "A"},
				{IPAddress: "192.0.2.11", Grade: "B"},
			}
		}
		require.NoError(t, json.NewEncoder(w).Encode(report))
	}))
	defer srv.Close()

	client := tlsaudit.New(
		tlsaudit.Config{BaseURL: srv.URL, MaxAttempts: 5},
		tlsaudit.WithSleeper(noSleep),
	)

	report, err := client.Run(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, "READY", report.Status)
	assert.Equal(t, "B", report.Grade())
	assert.Equal(t, 3, polls)
}

func TestRunHonorsAttemptBudget(t *testing.T) {
	var polls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		_ = json.NewEncoder(w).Encode(tlsaudit.Report{Host: "example.com", Status: "IN_PROGRESS"})
	}))
	defer srv.Close()

	client := tlsaudit.New(
		tlsaudit.Config{BaseURL: srv.URL, MaxAttempts: 4},
		tlsaudit.WithSleeper(noSleep),
	)

	_, err := client.Run(context.Background(), "example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, tlsaudit.ErrAuditTimeout)
	// One initial poll plus one per remaining attempt.
	assert.Equal(t, 5, polls)
}

func TestRunServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tlsaudit.Report{Host: "example.com", Status: "ERROR"})
	}))
	defer srv.Close()

	client := tlsaudit.New(
		tlsaudit.Config{BaseURL: srv.URL},
		tlsaudit.WithSleeper(noSleep),
	)

	_, err := client.Run(context.Background(), "example.com")
	assert.ErrorIs(t, err, tlsaudit.ErrAuditFailed)
}

func TestRunCancelledBetweenPolls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(tlsaudit.Report{Host: "example.com", Status: "IN_PROGRESS"})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := tlsaudit.New(
		tlsaudit.Config{BaseURL: srv.URL},
		tlsaudit.WithSleeper(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)

	_, err := client.Run(ctx, "example.com")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGradeWorstWins(t *testing.T) {
	tests := []struct {
		name   string
		grades []string
		want   string
	}{
		{name: "single", grades: []string{"A+"}, want: "A+"},
		{name: "mixed", grades: []string{"A", "F", "B"}, want: "F"},
		{name: "trust issue outranks F", grades: []string{"F", "T"}, want: "T"},
		{name: "empty grades skipped", grades: []string{"", "A-"}, want: "A-"},
		{name: "none", grades: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var report tlsaudit.Report
			for _, g := range tt.grades {
				report.Endpoints = append(report.Endpoints, tlsaudit.Endpoint{Grade: g})
			}
			assert.Equal(t, tt.want, report.Grade())
		})
	}
}
