package lookup

import (
	"context"
	"fmt"

	"github.com/dap-ware/whodis/models"
	"github.com/dap-ware/whodis/whois"
)

// followChain walks whois referrals starting at spec until a response
// carries no directive, a referral points back into the chain, or the
// hop cap is reached. A failed referral hop returns the chain collected
// so far with an observation rather than discarding good data; only a
// failure on the very first hop is an error.
func (c *Client) followChain(ctx context.Context, spec models.ServerSpec, domain string) ([]models.ReferralStep, []string, error) {
	var (
		steps   []models.ReferralStep
		obs     []string
		visited = map[models.ServerSpec]bool{spec: true}
		current = spec
	)

	for {
		raw, err := c.queryStep(ctx, current, domain)
		if err != nil {
			if len(steps) == 0 {
				return nil, nil, err
			}
			obs = append(obs, fmt.Sprintf("referral to %s failed: %v; keeping last good step", current, err))
			return steps, obs, nil
		}

		step := models.ReferralStep{Server: current, Raw: raw}

		// RDAP hops are terminal; referral directives are a whois-text thing.
		if current.Kind == models.KindRDAP {
			steps = append(steps, step)
			return steps, obs, nil
		}

		next, found := whois.ExtractReferral(raw)
		switch {
		case !found:
			steps = append(steps, step)
			return steps, obs, nil
		case visited[next]:
			obs = append(obs, fmt.Sprintf("referral loop: %s already visited", next))
			steps = append(steps, step)
			return steps, obs, nil
		case len(steps)+1 >= c.cfg.Lookup.MaxReferrals:
			obs = append(obs, fmt.Sprintf("referral limit of %d reached before %s", c.cfg.Lookup.MaxReferrals, next))
			steps = append(steps, step)
			return steps, obs, nil
		}

		step.Referral = &next
		steps = append(steps, step)
		visited[next] = true
		current = next
	}
}

func (c *Client) queryStep(ctx context.Context, spec models.ServerSpec, domain string) (string, error) {
	if spec.Kind == models.KindRDAP {
		return c.rdap.Fetch(ctx, spec.BaseURL, domain)
	}
	return c.whois.Query(ctx, spec.Host, spec.Port, domain)
}
