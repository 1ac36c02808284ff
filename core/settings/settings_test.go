package settings_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certward/certward/core/ca"
	"github.com/certward/certward/core/settings"
	"github.com/certward/certward/core/status"
)

func TestDefault(t *testing.T) {
	def := settings.Default()
	assert.Equal(t, ca.LetsEncrypt, def.DefaultCA)
	assert.Equal(t, status.DefaultThresholds(), def.Thresholds)
	assert.False(t, def.Alerts.Enabled)
	require.NoError(t, def.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*settings.Settings)
		wantErr bool
	}{
		{name: "defaults pass", mutate: func(s *settings.Settings) {}},
		{
			name:    "thresholds out of order",
			mutate:  func(s *settings.Settings) { s.Thresholds = status.Thresholds{Critical: 20, Warning: 10, Notice: 30} },
			wantErr: true,
		},
		{
			name:    "unknown CA",
			mutate:  func(s *settings.Settings) { s.DefaultCA = "bogus" },
			wantErr: true,
		},
		{
			name:    "staging CA as default",
			mutate:  func(s *settings.Settings) { s.DefaultCA = ca.LetsEncryptStaging },
			wantErr: true,
		},
		{
			name:    "alerts enabled without channel",
			mutate:  func(s *settings.Settings) { s.Alerts.Enabled = true },
			wantErr: true,
		},
		{
			name: "email channel without recipient",
			mutate: func(s *settings.Settings) {
				s.Alerts.Enabled = true
				s.Alerts.Email = &settings.EmailChannel{}
			},
			wantErr: true,
		},
		{
			name: "webhook channel without URL",
			mutate: func(s *settings.Settings) {
				s.Alerts.Enabled = true
				s.Alerts.Webhook = &settings.WebhookChannel{}
			},
			wantErr: true,
		},
		{
			name: "full alert config passes",
			mutate: func(s *settings.Settings) {
				s.Alerts.Enabled = true
				s.Alerts.Email = &settings.EmailChannel{Recipient: "ops@example.com"}
				s.Alerts.Webhook = &settings.WebhookChannel{URL: "https://hooks.example.com/certs", Secret: "s"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := settings.Default()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, settings.ErrInvalidSettings)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	assert.Equal(t, settings.Default(), store.Load())
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := settings.NewStore(path)
	assert.Equal(t, settings.Default(), store.Load())
}

func TestStoreLoadRepairsPartialDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	// Hand-edited file with broken thresholds and no CA.
	require.NoError(t, os.WriteFile(path, []byte(`{"alert_thresholds":{"critical":50,"warning":10,"notice":5}}`), 0o600))

	store := settings.NewStore(path)
	loaded := store.Load()
	assert.Equal(t, status.DefaultThresholds(), loaded.Thresholds)
	assert.Equal(t, ca.LetsEncrypt, loaded.DefaultCA)
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := settings.NewStore(path)

	cfg := settings.Default()
	cfg.DefaultCA = ca.Buypass
	cfg.Thresholds = status.Thresholds{Critical: 5, Warning: 10, Notice: 20}
	cfg.Alerts = settings.Alerts{
		Enabled: true,
		Email:   &settings.EmailChannel{Recipient: "ops@example.com"},
	}
	cfg.AutoRenewal = settings.AutoRenewal{PreHook: "systemctl stop nginx", PostHook: "systemctl start nginx"}

	require.NoError(t, store.Save(cfg))
	assert.Equal(t, cfg, store.Load())

	// No stray temp file is left behind.
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestStoreSaveRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store := settings.NewStore(path)

	bad := settings.Default()
	bad.DefaultCA = "bogus"
	err := store.Save(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, settings.ErrInvalidSettings)

	// Nothing was written.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSettingsJSONShape(t *testing.T) {
	cfg := settings.Default()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"default_ca"`)
	assert.Contains(t, string(data), `"alert_thresholds"`)
}
