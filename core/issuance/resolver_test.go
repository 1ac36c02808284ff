package issuance_test

import (
	"context"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certward/certward/core/issuance"
	"github.com/certward/certward/integration/acme"
)

// startDNS runs a local DNS server answering from the given records.
func startDNS(t *testing.T, records map[string][]dns.RR) string {
	t.Helper()

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		q := r.Question[0]
		for _, rr := range records[q.Name] {
			if rr.Header().Rrtype == q.Qtype {
				m.Answer = append(m.Answer, rr)
			}
		}
		_ = w.WriteMsg(m)
	})

	srv := &dns.Server{Addr: "127.0.0.1:0", Net: "udp", Handler: mux}
	started := make(chan struct{})
	srv.NotifyStartedFunc = func() { close(started) }
	go func() { _ = srv.ListenAndServe() }()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("dns server did not start")
	}
	t.Cleanup(func() { _ = srv.Shutdown() })

	return srv.PacketConn.LocalAddr().String()
}

func mustRR(t *testing.T, s string) dns.RR {
	t.Helper()
	rr, err := dns.NewRR(s)
	require.NoError(t, err)
	return rr
}

func TestResolvesHost(t *testing.T) {
	addr := startDNS(t, map[string][]dns.RR{
		"www.example.com.": {mustRR(t, "www.example.com. 60 IN A 192.0.2.10")},
		"v6.example.com.":  {mustRR(t, "v6.example.com. 60 IN AAAA 2001:db8::1")},
	})
	r := issuance.NewResolver(issuance.WithServer(addr))

	ok, err := r.ResolvesHost(context.Background(), "www.example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ResolvesHost(context.Background(), "v6.example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.ResolvesHost(context.Background(), "missing.example.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLookupHost(t *testing.T) {
	addr := startDNS(t, map[string][]dns.RR{
		"dual.example.com.": {
			mustRR(t, "dual.example.com. 60 IN A 192.0.2.10"),
			mustRR(t, "dual.example.com. 60 IN AAAA 2001:db8::1"),
		},
	})
	r := issuance.NewResolver(issuance.WithServer(addr))

	addrs, err := r.LookupHost(context.Background(), "dual.example.com")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"192.0.2.10", "2001:db8::1"}, addrs)

	addrs, err = r.LookupHost(context.Background(), "missing.example.com")
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

func TestHasTXT(t *testing.T) {
	addr := startDNS(t, map[string][]dns.RR{
		"_acme-challenge.example.com.": {
			mustRR(t, `_acme-challenge.example.com. 60 IN TXT "tok-12345"`),
		},
	})
	r := issuance.NewResolver(issuance.WithServer(addr))

	ok, err := r.HasTXT(context.Background(), "_acme-challenge.example.com", "tok-12345")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.HasTXT(context.Background(), "_acme-challenge.example.com", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAwaitTXTTimesOut(t *testing.T) {
	addr := startDNS(t, map[string][]dns.RR{})
	r := issuance.NewResolver(issuance.WithServer(addr))

	err := r.AwaitTXT(context.Background(),
		acme.TXTRecord{Name: "_acme-challenge.example.com", Value: "tok"},
		2, time.Millisecond)
	assert.ErrorIs(t, err, issuance.ErrPropagationTimeout)
}

func TestAwaitTXTSucceeds(t *testing.T) {
	addr := startDNS(t, map[string][]dns.RR{
		"_acme-challenge.example.com.": {
			mustRR(t, `_acme-challenge.example.com. 60 IN TXT "tok"`),
		},
	})
	r := issuance.NewResolver(issuance.WithServer(addr))

	err := r.AwaitTXT(context.Background(),
		acme.TXTRecord{Name: "_acme-challenge.example.com.", Value: "tok"},
		3, time.Millisecond)
	require.NoError(t, err)
}
