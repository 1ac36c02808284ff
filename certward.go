package certward

import (
	"context"
	"log/slog"

	"github.com/certward/certward/core/alerts"
	"github.com/certward/certward/core/config"
	"github.com/certward/certward/core/dnsprovider"
	"github.com/certward/certward/core/email"
	"github.com/certward/certward/core/history"
	"github.com/certward/certward/core/inventory"
	"github.com/certward/certward/core/issuance"
	"github.com/certward/certward/core/lifecycle"
	"github.com/certward/certward/core/settings"
	"github.com/certward/certward/integration/acme"
	"github.com/certward/certward/integration/webserver"
	"github.com/certward/certward/pkg/webhook"
)

// Config is the process-level configuration: where the stores live and how
// the external ACME client is invoked. Operator-tunable behavior (thresholds,
// default CA, alert channels) lives in the settings store instead.
type Config struct {
	ACMEDir      string `env:"CERTWARD_ACME_DIR" envDefault:"/etc/certward/acme"`
	CustomDir    string `env:"CERTWARD_CUSTOM_DIR" envDefault:"/etc/certward/custom"`
	SettingsFile string `env:"CERTWARD_SETTINGS_FILE" envDefault:"/etc/certward/settings.json"`
	HistoryFile  string `env:"CERTWARD_HISTORY_FILE" envDefault:"/etc/certward/history.jsonl"`
	LockDir      string `env:"CERTWARD_LOCK_DIR" envDefault:"/run/certward/locks"`
	DNSDir       string `env:"CERTWARD_DNS_DIR" envDefault:"/etc/certward/dns"`

	// HostIP is the host's public IP. When set, issuance preflight requires
	// requested domains to resolve to it.
	HostIP string `env:"CERTWARD_HOST_IP"`

	ACME acme.Config
}

// LoadConfig reads the process configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// App is the wired service graph. Fields are exported so callers (a CLI, an
// HTTP layer) reach the workflow they need directly.
type App struct {
	Settings  *settings.Store
	History   *history.Log
	Inventory *inventory.Service
	Providers *dnsprovider.Registry
	Issuer    *issuance.Orchestrator
	Lifecycle *lifecycle.Manager
	Alerts    *alerts.Dispatcher

	log *slog.Logger
}

// Option adjusts the app wiring.
type Option func(*appDeps)

type appDeps struct {
	log      *slog.Logger
	web      webserver.Reloader
	resolver *issuance.Resolver
	email    email.EmailSender
	webhook  *webhook.Sender
}

// WithLogger sets the logger every component inherits.
func WithLogger(log *slog.Logger) Option {
	return func(d *appDeps) {
		if log != nil {
			d.log = log
		}
	}
}

// WithWebServer wires the host web server for webroot challenges and reloads.
func WithWebServer(w webserver.Reloader) Option {
	return func(d *appDeps) { d.web = w }
}

// WithResolver wires DNS lookups for preflight and propagation checks.
func WithResolver(r *issuance.Resolver) Option {
	return func(d *appDeps) { d.resolver = r }
}

// WithEmailSender wires the alert email transport.
func WithEmailSender(s email.EmailSender) Option {
	return func(d *appDeps) { d.email = s }
}

// WithWebhookSender wires the alert webhook transport.
func WithWebhookSender(s *webhook.Sender) Option {
	return func(d *appDeps) { d.webhook = s }
}

// New wires the full service graph over the given store layout and ACME
// client.
func New(cfg Config, client acme.Client, opts ...Option) *App {
	deps := appDeps{
		log:      slog.Default(),
		resolver: issuance.NewResolver(),
		webhook:  webhook.NewSender(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	store := settings.NewStore(cfg.SettingsFile, settings.WithLogger(deps.log))
	histLog := history.NewLog(cfg.HistoryFile)
	inv := inventory.New(cfg.ACMEDir, cfg.CustomDir, store, inventory.WithLogger(deps.log))
	providers := dnsprovider.NewRegistry(cfg.DNSDir, dnsprovider.WithRegistryLogger(deps.log))

	issuerOpts := []issuance.Option{
		issuance.WithLogger(deps.log),
		issuance.WithResolver(deps.resolver),
	}
	if cfg.HostIP != "" {
		issuerOpts = append(issuerOpts, issuance.WithHostIP(cfg.HostIP))
	}
	lifecycleOpts := []lifecycle.Option{lifecycle.WithLogger(deps.log)}
	if deps.web != nil {
		issuerOpts = append(issuerOpts, issuance.WithWebServer(deps.web))
		lifecycleOpts = append(lifecycleOpts, lifecycle.WithWebServer(deps.web))
	}

	dispatcherOpts := []alerts.DispatcherOption{alerts.WithLogger(deps.log)}
	if deps.email != nil {
		dispatcherOpts = append(dispatcherOpts, alerts.WithEmailSender(deps.email))
	}
	if deps.webhook != nil {
		dispatcherOpts = append(dispatcherOpts, alerts.WithWebhookSender(deps.webhook))
	}

	return &App{
		Settings:  store,
		History:   histLog,
		Inventory: inv,
		Providers: providers,
		Issuer:    issuance.NewOrchestrator(client, providers, store, histLog, cfg.LockDir, issuerOpts...),
		Lifecycle: lifecycle.NewManager(inv, client, store, histLog, cfg.LockDir, cfg.CustomDir, lifecycleOpts...),
		Alerts:    alerts.NewDispatcher(dispatcherOpts...),
		log:       deps.log,
	}
}

// CheckAndAlert takes a fresh inventory snapshot and dispatches expiry
// notifications per the stored alert settings. It returns the snapshot so
// callers can render it.
func (a *App) CheckAndAlert(ctx context.Context) (inventory.Snapshot, error) {
	snap, err := a.Inventory.ListAll(ctx)
	if err != nil {
		return inventory.Snapshot{}, err
	}

	batch := alerts.Evaluate(&snap)
	if len(batch) == 0 {
		return snap, nil
	}

	cfg := a.Settings.Load().Alerts
	if err := a.Alerts.Dispatch(ctx, cfg, batch); err != nil {
		a.log.Warn("alert dispatch incomplete", "alerts", len(batch), "error", err)
	}
	return snap, nil
}
