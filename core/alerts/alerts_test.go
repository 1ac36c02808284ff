package alerts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certward/certward/core/alerts"
	"github.com/certward/certward/core/certificate"
	"github.com/certward/certward/core/email"
	"github.com/certward/certward/core/inventory"
	"github.com/certward/certward/core/settings"
	"github.com/certward/certward/core/status"
	"github.com/certward/certward/pkg/webhook"
)

func snapshotOf(certs ...certificate.Certificate) *inventory.Snapshot {
	return &inventory.Snapshot{Certificates: certs}
}

func TestEvaluateSelectsWarningAndWorse(t *testing.T) {
	snap := snapshotOf(
		certificate.Certificate{Name: "dead.example.com", Status: status.StatusExpired, DaysLeft: -3},
		certificate.Certificate{Name: "urgent.example.com", Status: status.StatusCritical, DaysLeft: 5},
		certificate.Certificate{Name: "soon.example.com", Status: status.StatusWarning, DaysLeft: 12},
		certificate.Certificate{Name: "noted.example.com", Status: status.StatusNotice, DaysLeft: 25},
		certificate.Certificate{Name: "fine.example.com", Status: status.StatusValid, DaysLeft: 200},
	)

	batch := alerts.Evaluate(snap)
	require.Len(t, batch, 3)
	assert.Equal(t, "dead.example.com", batch[0].CertName)
	assert.Equal(t, "urgent.example.com", batch[1].CertName)
	assert.Equal(t, "soon.example.com", batch[2].CertName)
}

func TestEvaluateNilSnapshot(t *testing.T) {
	assert.Nil(t, alerts.Evaluate(nil))
}

func TestSubjectReportsWorstStatus(t *testing.T) {
	batch := []alerts.Alert{
		{CertName: "a", Status: status.StatusWarning},
		{CertName: "b", Status: status.StatusExpired},
	}
	subject := alerts.Subject(batch)
	assert.Contains(t, subject, "2 certificate(s)")
	assert.Contains(t, subject, string(status.StatusExpired))
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []email.SendEmailParams
	sendErr error
}

func (f *fakeSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, params)
	return nil
}

func TestDispatchEmail(t *testing.T) {
	sender := &fakeSender{}
	d := alerts.NewDispatcher(alerts.WithEmailSender(sender))

	cfg := settings.Alerts{
		Enabled: true,
		Email:   &settings.EmailChannel{Recipient: "ops@example.com"},
	}
	batch := []alerts.Alert{{
		CertName: "urgent.example.com",
		Domains:  []string{"urgent.example.com"},
		Status:   status.StatusCritical,
		DaysLeft: 5,
		NotAfter: time.Now().Add(5 * 24 * time.Hour),
	}}

	require.NoError(t, d.Dispatch(context.Background(), cfg, batch))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ops@example.com", sender.sent[0].SendTo)
	assert.Equal(t, "cert-expiry", sender.sent[0].Tag)
	assert.Contains(t, sender.sent[0].BodyHTML, "urgent.example.com")
	assert.Contains(t, sender.sent[0].BodyHTML, "expires in 5 days")
}

func TestDispatchWebhookSigned(t *testing.T) {
	var gotSig string
	var gotPayload alerts.Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(webhook.SignatureHeader)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fixed := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	d := alerts.NewDispatcher(
		alerts.WithWebhookSender(webhook.NewSender()),
		alerts.WithClock(func() time.Time { return fixed }),
	)

	cfg := settings.Alerts{
		Enabled: true,
		Webhook: &settings.WebhookChannel{URL: srv.URL, Secret: "s3cret"},
	}
	batch := []alerts.Alert{{CertName: "dead.example.com", Status: status.StatusExpired, DaysLeft: -2}}

	require.NoError(t, d.Dispatch(context.Background(), cfg, batch))
	assert.NotEmpty(t, gotSig)
	assert.Equal(t, fixed, gotPayload.GeneratedAt)
	require.Len(t, gotPayload.Alerts, 1)
	assert.Equal(t, "dead.example.com", gotPayload.Alerts[0].CertName)
}

func TestDispatchPartialFailureStillDelivers(t *testing.T) {
	var webhookHits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		webhookHits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := &fakeSender{sendErr: errors.New("smtp down")}
	d := alerts.NewDispatcher(
		alerts.WithEmailSender(sender),
		alerts.WithWebhookSender(webhook.NewSender()),
	)

	cfg := settings.Alerts{
		Enabled: true,
		Email:   &settings.EmailChannel{Recipient: "ops@example.com"},
		Webhook: &settings.WebhookChannel{URL: srv.URL},
	}
	batch := []alerts.Alert{{CertName: "a.example.com", Status: status.StatusWarning, DaysLeft: 10}}

	err := d.Dispatch(context.Background(), cfg, batch)
	require.Error(t, err)
	assert.Equal(t, 1, webhookHits)
}

func TestDispatchDisabledOrEmpty(t *testing.T) {
	sender := &fakeSender{}
	d := alerts.NewDispatcher(alerts.WithEmailSender(sender))

	cfg := settings.Alerts{Enabled: false, Email: &settings.EmailChannel{Recipient: "ops@example.com"}}
	require.NoError(t, d.Dispatch(context.Background(), cfg, []alerts.Alert{{CertName: "a"}}))

	cfg.Enabled = true
	require.NoError(t, d.Dispatch(context.Background(), cfg, nil))

	assert.Empty(t, sender.sent)
}

func TestDispatchNoChannels(t *testing.T) {
	d := alerts.NewDispatcher()
	err := d.Dispatch(context.Background(), settings.Alerts{Enabled: true}, []alerts.Alert{{CertName: "a"}})
	assert.ErrorIs(t, err, alerts.ErrNoChannels)
}
