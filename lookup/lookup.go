// Package lookup is the public entry point of the registration-data
// engine: it validates input, sequences resolver → RDAP → whois →
// parser, and maintains the result cache.
package lookup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dap-ware/whodis/cache"
	"github.com/dap-ware/whodis/config"
	"github.com/dap-ware/whodis/models"
	"github.com/dap-ware/whodis/parser"
	"github.com/dap-ware/whodis/pool"
	"github.com/dap-ware/whodis/rdap"
	"github.com/dap-ware/whodis/resolver"
	"github.com/dap-ware/whodis/whois"
)

// Client performs registration-data lookups. All internals are shared
// behind pointers, so copying a Client is cheap and every copy uses the
// same cache, pools, and permits.
type Client struct {
	cfg      *config.Config
	log      *zap.Logger
	bufs     *pool.Pool
	whois    *whois.Client
	rdap     *rdap.Client
	resolver *resolver.Resolver
	cache    *cache.Cache

	// sem bounds concurrent domain queries.
	sem chan struct{}

	// now is the clock; swappable in tests.
	now func() time.Time
}

// New builds a client with default configuration and caching enabled.
func New() (*Client, error) {
	return NewWithConfig(config.Default(), nil)
}

// NewWithoutCache builds a client whose cache always misses.
func NewWithoutCache() (*Client, error) {
	c, err := NewWithConfig(config.Default(), nil)
	if err != nil {
		return nil, err
	}
	c.cache = nil
	return c, nil
}

// NewWithConfig builds a client from cfg. A nil logger disables logging.
func NewWithConfig(cfg *config.Config, log *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}

	bufs := pool.New(cfg.Buffers.PoolSize, cfg.Buffers.Size)
	wc := whois.NewClient(cfg.WhoisTimeout(), cfg.Lookup.MaxResponseSize, bufs, log)

	c := &Client{
		cfg:      cfg,
		log:      log,
		bufs:     bufs,
		whois:    wc,
		rdap:     rdap.NewClient(cfg.DiscoveryTimeout(), cfg.Lookup.MaxResponseSize, log),
		resolver: newResolver(wc, cfg, log),
		cache:    cache.New(cfg.Cache.MaxEntries, cfg.CacheTTL(), log),
		sem:      make(chan struct{}, cfg.Lookup.ConcurrentWhoisQueries),
		now:      time.Now,
	}
	return c, nil
}

func newResolver(wc *whois.Client, cfg *config.Config, log *zap.Logger) *resolver.Resolver {
	r := resolver.New(wc, cfg.Lookup.DiscoveryConcurrency, log)
	r.SetDiscoveryTimeout(cfg.DiscoveryTimeout())
	return r
}

// Resolver exposes the server resolver, mainly so service wiring can
// repoint the directory host.
func (c *Client) Resolver() *resolver.Resolver { return c.resolver }

// CacheEnabled reports whether results are being cached.
func (c *Client) CacheEnabled() bool { return c.cache != nil }

// Lookup returns the canonical record for domain, serving from cache
// when a fresh-enough entry exists.
func (c *Client) Lookup(ctx context.Context, domain string) (models.Record, error) {
	return c.lookup(ctx, domain, false, false)
}

// LookupFresh bypasses the cache read; the result still lands in the
// cache for later callers.
func (c *Client) LookupFresh(ctx context.Context, domain string) (models.Record, error) {
	return c.lookup(ctx, domain, true, false)
}

// LookupDebug bypasses the cache and keeps parser observations on the
// returned record.
func (c *Client) LookupDebug(ctx context.Context, domain string) (models.Record, error) {
	return c.lookup(ctx, domain, true, true)
}

func (c *Client) lookup(ctx context.Context, domain string, fresh, debug bool) (models.Record, error) {
	start := c.now()

	key, err := Normalize(domain)
	if err != nil {
		return models.Record{}, err
	}

	if !fresh {
		if rec, ok := c.cache.Get(key); ok {
			// Recompute day counts so a long-cached record never ships
			// stale values.
			parser.ComputeDerived(&rec, c.now())
			rec.QueryTimeMS = elapsedMS(start, c.now())
			return rec, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.LookupTimeout())
	defer cancel()

	select {
	case c.sem <- struct{}{}:
		defer func() { <-c.sem }()
	case <-ctx.Done():
		return models.Record{}, fmt.Errorf("%w: waiting for query permit", models.ErrTimeout)
	}

	tld, err := resolver.ExtractTLD(key)
	if err != nil {
		return models.Record{}, err
	}

	specs, err := c.resolver.Resolve(ctx, tld)
	if err != nil {
		return models.Record{}, err
	}
	if len(specs) == 0 {
		return models.Record{}, fmt.Errorf("%w: %s", models.ErrUnsupportedTLD, tld)
	}

	var lastErr error
	for _, spec := range specs {
		rec, err := c.attempt(ctx, spec, key)
		if err != nil {
			c.log.Debug("server attempt failed",
				zap.String("domain", key),
				zap.String("server", spec.String()),
				zap.Error(err))
			if models.MoreSevere(err, lastErr) {
				lastErr = err
			}
			continue
		}

		rec.Domain = key
		parser.ComputeDerived(&rec, c.now())
		rec.QueryTimeMS = elapsedMS(start, c.now())
		if !debug {
			rec.Observations = nil
		}

		stored := rec.Clone()
		stored.Observations = nil
		c.cache.Put(key, stored)
		c.log.Info("lookup complete",
			zap.String("domain", key),
			zap.String("server", rec.Server),
			zap.Int64("query_time_ms", rec.QueryTimeMS))
		return rec, nil
	}

	return models.Record{}, lastErr
}

// attempt runs one ServerSpec end to end: transport, referral chain for
// whois sources, and parsing of the terminal body.
func (c *Client) attempt(ctx context.Context, spec models.ServerSpec, domain string) (models.Record, error) {
	if spec.Kind == models.KindRDAP {
		raw, err := c.rdap.Fetch(ctx, spec.BaseURL, domain)
		if err != nil {
			return models.Record{}, err
		}
		rec, obs, err := parser.ParseRDAP([]byte(raw))
		if err != nil {
			return models.Record{}, err
		}
		rec.Server = spec.String()
		rec.Raw = raw
		rec.Observations = obs
		return rec, nil
	}

	steps, chainObs, err := c.followChain(ctx, spec, domain)
	if err != nil {
		return models.Record{}, err
	}

	terminal := steps[len(steps)-1]
	var (
		rec models.Record
		obs []string
	)
	if terminal.Server.Kind == models.KindRDAP {
		rec, obs, err = parser.ParseRDAP([]byte(terminal.Raw))
		if err != nil && len(steps) > 1 {
			// The RDAP hop answered but with an unintelligible body; the
			// preceding whois step still holds a parseable record.
			chainObs = append(chainObs, fmt.Sprintf("terminal rdap body unparseable: %v", err))
			terminal = steps[len(steps)-2]
			rec, obs = parser.ParseText(terminal.Raw)
		} else if err != nil {
			return models.Record{}, err
		}
	} else {
		rec, obs = parser.ParseText(terminal.Raw)
	}

	raws := make([]string, 0, len(steps))
	for _, step := range steps {
		raws = append(raws, step.Raw)
	}
	rec.Raw = strings.Join(raws, "\n")
	rec.Server = terminal.Server.String()
	rec.Observations = append(chainObs, obs...)
	return rec, nil
}

func elapsedMS(start, end time.Time) int64 {
	ms := end.Sub(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
