// Package resolver turns a TLD into an ordered list of authoritative
// server specs, using the static bootstrap tables, the live IANA
// directory, and a small set of pattern fallbacks.
package resolver

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"

	"github.com/dap-ware/whodis/models"
	"github.com/dap-ware/whodis/whois"
)

// DefaultDirectoryHost is the root directory consulted for TLDs missing
// from the bootstrap tables.
const DefaultDirectoryHost = "whois.iana.org"

var urlLine = regexp.MustCompile(`(?i)https?://[^\s]+`)

// Resolver memoizes TLD → server lists for the process lifetime and
// coalesces concurrent discoveries per TLD.
type Resolver struct {
	whois            *whois.Client
	log              *zap.Logger
	directoryHost    string
	directoryPort    int
	discoveryTimeout time.Duration

	mu   sync.RWMutex
	memo map[string][]models.ServerSpec

	flight singleflight.Group
	sem    chan struct{}

	// resolvable is the DNS probe for pattern fallbacks; swappable in tests.
	resolvable func(host string) bool
}

// New builds a resolver that uses wc for directory queries and allows
// at most discoveryPermits concurrent discovery operations.
func New(wc *whois.Client, discoveryPermits int, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if discoveryPermits <= 0 {
		discoveryPermits = 1
	}
	return &Resolver{
		whois:            wc,
		log:              log,
		directoryHost:    DefaultDirectoryHost,
		directoryPort:    43,
		discoveryTimeout: 10 * time.Second,
		memo:             make(map[string][]models.ServerSpec),
		sem:              make(chan struct{}, discoveryPermits),
		resolvable:       hostResolvable,
	}
}

// SetDirectory overrides the root directory endpoint.
func (r *Resolver) SetDirectory(host string, port int) {
	r.directoryHost = host
	r.directoryPort = port
}

// SetDiscoveryTimeout bounds each directory query.
func (r *Resolver) SetDiscoveryTimeout(d time.Duration) {
	if d > 0 {
		r.discoveryTimeout = d
	}
}

// ExtractTLD returns the effective registrable suffix of a domain using
// the public suffix list. Multi-label suffixes (co.uk) come back whole.
func ExtractTLD(domain string) (string, error) {
	suffix, _ := publicsuffix.PublicSuffix(domain)
	if suffix == "" {
		return "", fmt.Errorf("%w: no public suffix in %q", models.ErrInvalidDomain, domain)
	}
	return suffix, nil
}

// Resolve returns a non-empty ordered list of servers to try for a TLD,
// RDAP entries first. Fails with ErrUnsupportedTLD when the bootstrap
// tables, the directory, and the pattern fallbacks all come up empty.
func (r *Resolver) Resolve(ctx context.Context, tld string) ([]models.ServerSpec, error) {
	tld = strings.ToLower(strings.TrimSpace(tld))
	if tld == "" {
		return nil, fmt.Errorf("%w: empty tld", models.ErrInvalidDomain)
	}

	r.mu.RLock()
	specs, ok := r.memo[tld]
	r.mu.RUnlock()
	if ok {
		return append([]models.ServerSpec(nil), specs...), nil
	}

	if specs := bootstrapSpecs(tld); len(specs) > 0 {
		r.remember(tld, specs)
		return specs, nil
	}

	// One in-flight discovery per TLD; concurrent callers share the result.
	v, err, _ := r.flight.Do(tld, func() (interface{}, error) {
		return r.discover(ctx, tld)
	})
	if err != nil {
		return nil, err
	}
	specs = v.([]models.ServerSpec)
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrUnsupportedTLD, tld)
	}
	return append([]models.ServerSpec(nil), specs...), nil
}

func bootstrapSpecs(tld string) []models.ServerSpec {
	var specs []models.ServerSpec
	for _, base := range RDAPBasesFor(tld) {
		specs = append(specs, models.RDAPServer(base))
	}
	if host := WhoisHostFor(tld); host != "" {
		specs = append(specs, models.WhoisServer(host, 43))
	}
	return specs
}

func (r *Resolver) discover(ctx context.Context, tld string) ([]models.ServerSpec, error) {
	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for discovery permit", models.ErrTimeout)
	}

	if specs := r.queryDirectory(ctx, tld); len(specs) > 0 {
		r.remember(tld, specs)
		r.log.Info("discovered servers via directory",
			zap.String("tld", tld), zap.Int("count", len(specs)))
		return specs, nil
	}

	if specs := r.patternFallbacks(tld); len(specs) > 0 {
		r.remember(tld, specs)
		r.log.Info("discovered servers via pattern fallback",
			zap.String("tld", tld), zap.Int("count", len(specs)))
		return specs, nil
	}

	return nil, nil
}

// queryDirectory asks the root directory about the literal TLD and
// scans the reply for a whois host and any RDAP base URL.
func (r *Resolver) queryDirectory(ctx context.Context, tld string) []models.ServerSpec {
	ctx, cancel := context.WithTimeout(ctx, r.discoveryTimeout)
	defer cancel()

	raw, err := r.whois.Query(ctx, r.directoryHost, r.directoryPort, tld)
	if err != nil {
		r.log.Debug("directory query failed", zap.String("tld", tld), zap.Error(err))
		return nil
	}
	return parseDirectoryResponse(raw)
}

func parseDirectoryResponse(raw string) []models.ServerSpec {
	var (
		specs    []models.ServerSpec
		ltpSpec  *models.ServerSpec
		rdapBase string
	)
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))
		if trimmed == "" || strings.HasPrefix(trimmed, "%") || strings.HasPrefix(trimmed, "#") {
			continue
		}
		key, value, ok := strings.Cut(trimmed, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), "whois") {
			if ltpSpec == nil {
				if spec, ok := whois.ParseTarget(strings.TrimSpace(value)); ok && spec.Kind == models.KindWhois {
					ltpSpec = &spec
				}
			}
			continue
		}
		if rdapBase == "" {
			if m := urlLine.FindString(trimmed); m != "" {
				rdapBase = strings.TrimRight(m, "/.")
			}
		}
	}
	if rdapBase != "" {
		specs = append(specs, models.RDAPServer(rdapBase))
	}
	if ltpSpec != nil {
		specs = append(specs, *ltpSpec)
	}
	return specs
}

// patternFallbacks guesses well-known host shapes, keeping only names
// that actually resolve in DNS.
func (r *Resolver) patternFallbacks(tld string) []models.ServerSpec {
	patterns := []string{
		"whois.nic." + tld,
		tld + ".whois-servers.net",
	}
	var specs []models.ServerSpec
	for _, host := range patterns {
		if r.resolvable(host) {
			specs = append(specs, models.WhoisServer(host, 43))
		}
	}
	return specs
}

func (r *Resolver) remember(tld string, specs []models.ServerSpec) {
	r.mu.Lock()
	r.memo[tld] = append([]models.ServerSpec(nil), specs...)
	r.mu.Unlock()
}

// Seed pins a server list for a TLD ahead of any discovery, taking
// precedence over the bootstrap tables.
func (r *Resolver) Seed(tld string, specs []models.ServerSpec) {
	r.remember(strings.ToLower(tld), specs)
}

// Invalidate drops the memoized list for a TLD so the next lookup
// rediscovers it.
func (r *Resolver) Invalidate(tld string) {
	r.mu.Lock()
	delete(r.memo, tld)
	r.mu.Unlock()
}

// hostResolvable answers whether a DNS name has an address record,
// asking the system resolvers directly and falling back to the net
// package when resolv.conf is unreadable.
func hostResolvable(host string) bool {
	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		addrs, err := net.LookupHost(host)
		return err == nil && len(addrs) > 0
	}

	c := &dns.Client{Timeout: 3 * time.Second}
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	for _, server := range conf.Servers {
		in, _, err := c.Exchange(m, net.JoinHostPort(server, conf.Port))
		if err != nil {
			continue
		}
		if len(in.Answer) > 0 {
			return true
		}
		if in.Rcode == dns.RcodeSuccess {
			// Maybe v6-only; one AAAA probe before giving up on this server.
			m6 := new(dns.Msg)
			m6.SetQuestion(dns.Fqdn(host), dns.TypeAAAA)
			if in6, _, err := c.Exchange(m6, net.JoinHostPort(server, conf.Port)); err == nil && len(in6.Answer) > 0 {
				return true
			}
			return false
		}
	}
	return false
}
