package dnsprovider

// ID identifies a supported DNS provider. The set is closed: configuration of
// an unknown provider fails instead of being matched by name at call sites.
type ID string

const (
	Cloudflare   ID = "cloudflare"
	DigitalOcean ID = "digitalocean"
	Hetzner      ID = "hetzner"
	Vultr        ID = "vultr"
	Gandi        ID = "gandi"
)

// Field describes one required credential field of a provider.
type Field struct {
	// Key is the name operators supply the value under.
	Key string
	// IniKey is the key written into the ACME client's credentials file.
	IniKey string
	// Label is a short human description.
	Label string
}

// Descriptor is the static catalogue entry for a provider: its credential
// schema, the ACME client plugin it maps to, and its capability test.
type Descriptor struct {
	ID   ID
	Name string
	// Plugin is the external ACME client's DNS plugin identifier, e.g.
	// "cloudflare" for the --dns-cloudflare flags.
	Plugin string
	Fields []Field

	baseURL    string
	capability capabilityFunc
}

// Credentials holds operator-supplied credential fields keyed by Field.Key.
type Credentials map[string]string

var descriptors = map[ID]Descriptor{
	Cloudflare: {
		ID:     Cloudflare,
		Name:   "Cloudflare",
		Plugin: "cloudflare",
		Fields: []Field{
			{Key: "api_token", IniKey: "dns_cloudflare_api_token", Label: "API token with Zone:DNS:Edit"},
		},
		baseURL:    "https://api.cloudflare.com/client/v4",
		capability: cloudflareCapability,
	},
	DigitalOcean: {
		ID:     DigitalOcean,
		Name:   "DigitalOcean",
		Plugin: "digitalocean",
		Fields: []Field{
			{Key: "token", IniKey: "dns_digitalocean_token", Label: "personal access token"},
		},
		baseURL:    "https://api.digitalocean.com",
		capability: digitaloceanCapability,
	},
	Hetzner: {
		ID:     Hetzner,
		Name:   "Hetzner DNS",
		Plugin: "hetzner",
		Fields: []Field{
			{Key: "api_token", IniKey: "dns_hetzner_api_token", Label: "DNS console API token"},
		},
		baseURL:    "https://dns.hetzner.com/api/v1",
		capability: hetznerCapability,
	},
	Vultr: {
		ID:     Vultr,
		Name:   "Vultr",
		Plugin: "vultr",
		Fields: []Field{
			{Key: "api_key", IniKey: "dns_vultr_key", Label: "API key"},
		},
		baseURL:    "https://api.vultr.com/v2",
		capability: vultrCapability,
	},
	Gandi: {
		ID:     Gandi,
		Name:   "Gandi LiveDNS",
		Plugin: "gandi",
		Fields: []Field{
			{Key: "api_key", IniKey: "dns_gandi_api_key", Label: "LiveDNS API key"},
		},
		baseURL:    "https://api.gandi.net/v5",
		capability: gandiCapability,
	},
}

// Describe returns the catalogue entry for id.
func Describe(id ID) (Descriptor, bool) {
	d, ok := descriptors[id]
	return d, ok
}

// All returns the provider catalogue in a stable order.
func All() []Descriptor {
	order := []ID{Cloudflare, DigitalOcean, Hetzner, Vultr, Gandi}
	out := make([]Descriptor, 0, len(order))
	for _, id := range order {
		out = append(out, descriptors[id])
	}
	return out
}
