package dnsprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// capabilityFunc performs a read-only authenticated call against the provider
// API and reports whether the supplied credentials are usable. Nothing is
// mutated on the provider side.
type capabilityFunc func(ctx context.Context, client *http.Client, baseURL string, creds Credentials) error

func cloudflareCapability(ctx context.Context, client *http.Client, baseURL string, creds Credentials) error {
	body, err := authorizedGet(ctx, client, baseURL+"/user/tokens/verify", "Authorization", "Bearer "+creds["api_token"])
	if err != nil {
		return err
	}
	var resp struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || !resp.Success {
		return fmt.Errorf("%w: cloudflare token verification did not succeed", ErrCapabilityTest)
	}
	return nil
}

func digitaloceanCapability(ctx context.Context, client *http.Client, baseURL string, creds Credentials) error {
	body, err := authorizedGet(ctx, client, baseURL+"/v2/account", "Authorization", "Bearer "+creds["token"])
	if err != nil {
		return err
	}
	var resp struct {
		Account *struct{} `json:"account"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Account == nil {
		return fmt.Errorf("%w: digitalocean account probe returned no account", ErrCapabilityTest)
	}
	return nil
}

func hetznerCapability(ctx context.Context, client *http.Client, baseURL string, creds Credentials) error {
	body, err := authorizedGet(ctx, client, baseURL+"/zones", "Auth-API-Token", creds["api_token"])
	if err != nil {
		return err
	}
	var resp struct {
		Zones []struct{} `json:"zones"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: hetzner zones probe returned unexpected payload", ErrCapabilityTest)
	}
	return nil
}

func vultrCapability(ctx context.Context, client *http.Client, baseURL string, creds Credentials) error {
	body, err := authorizedGet(ctx, client, baseURL+"/account", "Authorization", "Bearer "+creds["api_key"])
	if err != nil {
		return err
	}
	var resp struct {
		Account *struct{} `json:"account"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Account == nil {
		return fmt.Errorf("%w: vultr account probe returned no account", ErrCapabilityTest)
	}
	return nil
}

func gandiCapability(ctx context.Context, client *http.Client, baseURL string, creds Credentials) error {
	_, err := authorizedGet(ctx, client, baseURL+"/livedns/domains", "Authorization", "Apikey "+creds["api_key"])
	return err
}

// authorizedGet performs the shared GET-with-auth-header probe. Any non-2xx
// status is a capability failure carrying the provider's response status.
func authorizedGet(ctx context.Context, client *http.Client, url, header, value string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapabilityTest, err)
	}
	req.Header.Set(header, value)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCapabilityTest, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrCapabilityTest, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: provider responded %s", ErrCapabilityTest, resp.Status)
	}
	return body, nil
}
