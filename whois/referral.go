package whois

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dap-ware/whodis/models"
)

// referralLine matches the in-band directives registries use to point at
// a more authoritative server.
var referralLine = regexp.MustCompile(`(?i)^\s*(refer|whois server|registrar whois server|referral url)\s*:\s*(\S+)\s*$`)

// ExtractReferral scans a response body for a referral directive and
// converts the target into a ServerSpec: https?:// URLs become RDAP
// specs, anything else a whois host with an optional port.
func ExtractReferral(raw string) (models.ServerSpec, bool) {
	for _, line := range strings.Split(raw, "\n") {
		m := referralLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		if spec, ok := ParseTarget(m[2]); ok {
			return spec, true
		}
	}
	return models.ServerSpec{}, false
}

// ParseTarget converts a referral or directory target — an https?://
// URL, a whois:// URL, or a bare host with optional port — into a
// ServerSpec.
func ParseTarget(target string) (models.ServerSpec, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return models.ServerSpec{}, false
	}

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		u, err := url.Parse(target)
		if err != nil || u.Host == "" {
			return models.ServerSpec{}, false
		}
		return models.RDAPServer(target), true
	}

	// Some registries write whois://host or host:port.
	target = strings.TrimPrefix(target, "whois://")
	host, portStr, found := strings.Cut(target, ":")
	port := 43
	if found {
		p, err := strconv.Atoi(portStr)
		if err != nil || p <= 0 || p > 65535 {
			return models.ServerSpec{}, false
		}
		port = p
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || strings.ContainsAny(host, " /") {
		return models.ServerSpec{}, false
	}
	return models.WhoisServer(host, port), true
}
