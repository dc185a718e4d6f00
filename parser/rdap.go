package parser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dap-ware/whodis/models"
)

// Wire shapes for the subset of an RDAP domain object this parser reads.
type rdapDomain struct {
	ObjectClassName string           `json:"objectClassName"`
	LDHName         string           `json:"ldhName"`
	Nameservers     []rdapNameserver `json:"nameservers"`
	Status          []string         `json:"status"`
	Events          []rdapEvent      `json:"events"`
	Entities        []rdapEntity     `json:"entities"`
}

type rdapNameserver struct {
	LDHName     string `json:"ldhName"`
	UnicodeName string `json:"unicodeName"`
}

type rdapEvent struct {
	Action string `json:"eventAction"`
	Date   string `json:"eventDate"`
}

type rdapEntity struct {
	Roles      []string     `json:"roles"`
	VCardArray interface{}  `json:"vcardArray"`
	Entities   []rdapEntity `json:"entities"`
}

// ParseRDAP decodes an RDAP JSON body into the non-derived fields of a
// Record. A body that does not decode as a JSON object is a protocol
// error; anything missing inside a valid object just stays empty.
func ParseRDAP(raw []byte) (models.Record, []string, error) {
	var (
		rec models.Record
		obs []string
	)

	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		return rec, nil, fmt.Errorf("%w: rdap body is not a JSON object", models.ErrProtocol)
	}

	var d rdapDomain
	if err := json.Unmarshal(raw, &d); err != nil {
		return rec, nil, fmt.Errorf("%w: rdap body: %v", models.ErrProtocol, err)
	}

	nsSeen := map[string]bool{}
	for _, ns := range d.Nameservers {
		host := strings.ToLower(strings.TrimSuffix(ns.LDHName, "."))
		if host != "" && !nsSeen[host] {
			nsSeen[host] = true
			rec.NameServers = append(rec.NameServers, host)
		}
	}

	statusSeen := map[string]bool{}
	for _, s := range d.Status {
		if s != "" && !statusSeen[s] {
			statusSeen[s] = true
			rec.Status = append(rec.Status, s)
		}
	}

	var created, expires, updated, dbUpdated string
	for _, ev := range d.Events {
		switch ev.Action {
		case "registration":
			if created == "" {
				created = ev.Date
			}
		case "expiration":
			if expires == "" {
				expires = ev.Date
			}
		case "last changed":
			if updated == "" {
				updated = ev.Date
			}
		case "last update of RDAP database":
			if dbUpdated == "" {
				dbUpdated = ev.Date
			}
		}
	}
	if updated == "" && dbUpdated != "" {
		updated = dbUpdated
		obs = append(obs, "updated date taken from RDAP database update event")
	}

	walkEntities(&rec, d.Entities)

	obs = append(obs, resolveDates(&rec, created, expires, updated)...)
	return rec, obs, nil
}

func walkEntities(rec *models.Record, entities []rdapEntity) {
	for _, e := range entities {
		for _, role := range e.Roles {
			switch role {
			case "registrar":
				if rec.Registrar == "" {
					if org := vcardValue(e.VCardArray, "org"); org != "" {
						rec.Registrar = org
					} else if fn := vcardValue(e.VCardArray, "fn"); fn != "" {
						rec.Registrar = fn
					}
				}
			case "registrant":
				if rec.RegistrantName == "" {
					if fn := vcardValue(e.VCardArray, "fn"); fn != "" {
						rec.RegistrantName = fn
					} else if org := vcardValue(e.VCardArray, "org"); org != "" {
						rec.RegistrantName = org
					}
				}
				if rec.RegistrantEmail == "" {
					rec.RegistrantEmail = vcardValue(e.VCardArray, "email")
				}
			case "administrative":
				if rec.AdminEmail == "" {
					rec.AdminEmail = vcardValue(e.VCardArray, "email")
				}
			case "technical":
				if rec.TechEmail == "" {
					rec.TechEmail = vcardValue(e.VCardArray, "email")
				}
			}
		}
		walkEntities(rec, e.Entities)
	}
}

// vcardValue pulls the value of a named property out of a jCard array:
// ["vcard", [[name, params, type, value], ...]]. Array-valued entries
// (org with units) collapse to their first string.
func vcardValue(vc interface{}, name string) string {
	arr, ok := vc.([]interface{})
	if !ok || len(arr) < 2 {
		return ""
	}
	props, ok := arr[1].([]interface{})
	if !ok {
		return ""
	}
	for _, p := range props {
		prop, ok := p.([]interface{})
		if !ok || len(prop) < 4 {
			continue
		}
		pname, ok := prop[0].(string)
		if !ok || pname != name {
			continue
		}
		switch v := prop[3].(type) {
		case string:
			if v != "" {
				return v
			}
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					return s
				}
			}
		}
	}
	return ""
}
