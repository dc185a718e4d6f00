// Package parser turns raw registration-data responses (port-43 text or
// RDAP JSON) into canonical records.
package parser

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dap-ware/whodis/models"
)

type field int

const (
	fieldRegistrar field = iota
	fieldCreated
	fieldExpires
	fieldUpdated
	fieldNameServer
	fieldStatus
	fieldRegistrantName
)

// synonyms maps normalized response keys onto target fields. Keys are
// lowercased with interior whitespace collapsed before lookup.
var synonyms = map[string]field{
	"registrar":              fieldRegistrar,
	"sponsoring registrar":   fieldRegistrar,
	"registrar name":         fieldRegistrar,
	"registrar organization": fieldRegistrar,

	"creation date":            fieldCreated,
	"created":                  fieldCreated,
	"created on":               fieldCreated,
	"registered":               fieldCreated,
	"registered on":            fieldCreated,
	"registration date":        fieldCreated,
	"domain registration date": fieldCreated,
	"registration time":        fieldCreated,

	"expiration date":                        fieldExpires,
	"registry expiry date":                   fieldExpires,
	"expires":                                fieldExpires,
	"expires on":                             fieldExpires,
	"expiry date":                            fieldExpires,
	"paid-till":                              fieldExpires,
	"renewal date":                           fieldExpires,
	"expiration time":                        fieldExpires,
	"registrar registration expiration date": fieldExpires,

	"updated date":  fieldUpdated,
	"last updated":  fieldUpdated,
	"last modified": fieldUpdated,
	"last-update":   fieldUpdated,
	"changed":       fieldUpdated,

	"name server":  fieldNameServer,
	"name servers": fieldNameServer,
	"nameserver":   fieldNameServer,
	"nameservers":  fieldNameServer,
	"nserver":      fieldNameServer,

	"domain status": fieldStatus,
	"status":        fieldStatus,

	"registrant":              fieldRegistrantName,
	"registrant name":         fieldRegistrantName,
	"registrant organization": fieldRegistrantName,
}

// unregisteredMarkers flag responses for domains with no registration.
// Surfaced as an observation only; absence is never treated as data.
var unregisteredMarkers = []string{
	"no match for",
	"not found",
	"no entries found",
	"no data found",
	"object does not exist",
	"domain not found",
	"status: free",
	"available for registration",
	"has not been registered",
}

// redactionMarkers mark registry placeholder values that carry no data.
var redactionMarkers = []string{
	"redacted for privacy",
	"data protected",
	"select request email form",
	"statutory masking enabled",
}

// ParseText scans a port-43 response body into the non-derived fields of
// a Record. Field-level failures are never fatal: bad values are skipped
// and reported in the observations slice.
func ParseText(raw string) (models.Record, []string) {
	var (
		rec models.Record
		obs []string

		created, expires, updated string
		nsSeen                    = map[string]bool{}
		statusSeen                = map[string]bool{}
		pending                   field
		pendingActive             bool
	)

	lines := strings.Split(raw, "\n")
	for _, rawLine := range lines {
		line := strings.TrimRight(rawLine, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "%") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ">>>") {
			pendingActive = false
			continue
		}

		// Continuation: an indented non-empty line completes the value of
		// the preceding bare key.
		if pendingActive && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && !strings.Contains(trimmed, ":") {
			assign(&rec, pending, trimmed, &created, &expires, &updated, nsSeen, statusSeen)
			pendingActive = false
			continue
		}
		pendingActive = false

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		f, known := matchField(key)
		if !known {
			if email, role := matchEmail(key); email {
				assignEmail(&rec, role, value)
			}
			continue
		}
		if value == "" {
			pending = f
			pendingActive = true
			continue
		}
		assign(&rec, f, value, &created, &expires, &updated, nsSeen, statusSeen)
	}

	lower := strings.ToLower(raw)
	for _, marker := range unregisteredMarkers {
		if strings.Contains(lower, marker) {
			obs = append(obs, fmt.Sprintf("domain appears unregistered: matched marker %q", marker))
			break
		}
	}

	obs = append(obs, resolveDates(&rec, created, expires, updated)...)
	return rec, obs
}

func matchField(key string) (field, bool) {
	f, ok := synonyms[normalizeKey(key)]
	return f, ok
}

// matchEmail detects contact-email keys: a role prefix (registrant,
// admin, tech) combined with "email" or "e-mail".
func matchEmail(key string) (bool, string) {
	k := normalizeKey(key)
	if !strings.Contains(k, "email") && !strings.Contains(k, "e-mail") {
		return false, ""
	}
	switch {
	case strings.HasPrefix(k, "registrant"):
		return true, "registrant"
	case strings.HasPrefix(k, "admin"):
		return true, "admin"
	case strings.HasPrefix(k, "tech"):
		return true, "tech"
	}
	return false, ""
}

func normalizeKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(key))), " ")
}

func redacted(value string) bool {
	v := strings.ToLower(value)
	for _, marker := range redactionMarkers {
		if strings.Contains(v, marker) {
			return true
		}
	}
	return false
}

func assign(rec *models.Record, f field, value string, created, expires, updated *string, nsSeen, statusSeen map[string]bool) {
	switch f {
	case fieldRegistrar:
		if rec.Registrar == "" && !redacted(value) {
			rec.Registrar = value
		}
	case fieldCreated:
		if *created == "" {
			*created = value
		}
	case fieldExpires:
		if *expires == "" {
			*expires = value
		}
	case fieldUpdated:
		if *updated == "" {
			*updated = value
		}
	case fieldNameServer:
		host := strings.ToLower(strings.TrimSuffix(firstToken(value), "."))
		if host != "" && !nsSeen[host] {
			nsSeen[host] = true
			rec.NameServers = append(rec.NameServers, host)
		}
	case fieldStatus:
		// Status is the one documented comma-separated list field.
		for _, part := range strings.Split(value, ",") {
			status := strings.TrimSpace(part)
			if status != "" && !statusSeen[status] {
				statusSeen[status] = true
				rec.Status = append(rec.Status, status)
			}
		}
	case fieldRegistrantName:
		if rec.RegistrantName == "" && !redacted(value) {
			rec.RegistrantName = value
		}
	}
}

func assignEmail(rec *models.Record, role, value string) {
	if value == "" || redacted(value) {
		return
	}
	switch role {
	case "registrant":
		if rec.RegistrantEmail == "" {
			rec.RegistrantEmail = value
		}
	case "admin":
		if rec.AdminEmail == "" {
			rec.AdminEmail = value
		}
	case "tech":
		if rec.TechEmail == "" {
			rec.TechEmail = value
		}
	}
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// resolveDates parses the collected date strings and enforces the
// creation ≤ expiration invariant, dropping the expiration otherwise.
func resolveDates(rec *models.Record, created, expires, updated string) []string {
	var obs []string
	set := func(field string, value string) *time.Time {
		if value == "" {
			return nil
		}
		t, err := ParseDate(value)
		if err != nil {
			obs = append(obs, fmt.Sprintf("unparseable %s date: %q", field, value))
			return nil
		}
		return &t
	}
	rec.CreationDate = set("creation", created)
	rec.ExpirationDate = set("expiration", expires)
	rec.UpdatedDate = set("updated", updated)

	if rec.CreationDate != nil && rec.ExpirationDate != nil && rec.CreationDate.After(*rec.ExpirationDate) {
		obs = append(obs, fmt.Sprintf("expiration %s precedes creation %s, dropping expiration",
			rec.ExpirationDate.Format(time.RFC3339), rec.CreationDate.Format(time.RFC3339)))
		rec.ExpirationDate = nil
	}
	return obs
}

// ComputeDerived fills the day-count fields from the record's dates at
// the given instant. Absent dates leave absent counts. Called on every
// fresh parse and again on every cache read, so long-cached records
// never carry stale counts.
func ComputeDerived(rec *models.Record, now time.Time) {
	rec.CreatedAgo = daysBetween(rec.CreationDate, now, false)
	rec.UpdatedAgo = daysBetween(rec.UpdatedDate, now, false)
	rec.ExpiresIn = daysBetween(rec.ExpirationDate, now, true)
}

func daysBetween(t *time.Time, now time.Time, until bool) *int64 {
	if t == nil {
		return nil
	}
	d := now.Sub(*t)
	if until {
		d = t.Sub(now)
	}
	days := int64(math.Floor(d.Hours() / 24))
	return &days
}
