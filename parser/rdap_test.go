package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dap-ware/whodis/models"
)

const sampleRDAP = `{
  "objectClassName": "domain",
  "ldhName": "EXAMPLE.COM",
  "status": ["client delete prohibited", "client transfer prohibited", "client delete prohibited"],
  "nameservers": [
    {"objectClassName": "nameserver", "ldhName": "A.IANA-SERVERS.NET"},
    {"objectClassName": "nameserver", "ldhName": "B.IANA-SERVERS.NET"},
    {"objectClassName": "nameserver", "ldhName": "a.iana-servers.net"}
  ],
  "events": [
    {"eventAction": "registration", "eventDate": "1995-08-14T04:00:00Z"},
    {"eventAction": "expiration", "eventDate": "2026-08-13T04:00:00Z"},
    {"eventAction": "last changed", "eventDate": "2025-08-14T07:01:44Z"}
  ],
  "entities": [
    {
      "objectClassName": "entity",
      "roles": ["registrar"],
      "vcardArray": ["vcard", [
        ["version", {}, "text", "4.0"],
        ["fn", {}, "text", "Example Registrar, Inc."],
        ["org", {}, "text", "Example Registrar, Inc."]
      ]],
      "entities": [
        {
          "objectClassName": "entity",
          "roles": ["administrative"],
          "vcardArray": ["vcard", [
            ["version", {}, "text", "4.0"],
            ["email", {}, "text", "admin@example-registrar.com"]
          ]]
        }
      ]
    },
    {
      "objectClassName": "entity",
      "roles": ["registrant"],
      "vcardArray": ["vcard", [
        ["version", {}, "text", "4.0"],
        ["fn", {}, "text", "Example Holdings"],
        ["email", {}, "text", "owner@example.com"]
      ]]
    },
    {
      "objectClassName": "entity",
      "roles": ["technical"],
      "vcardArray": ["vcard", [
        ["version", {}, "text", "4.0"],
        ["email", {}, "text", "hostmaster@example.com"]
      ]]
    }
  ]
}`

func TestParseRDAPExtractsCanonicalFields(t *testing.T) {
	rec, _, err := ParseRDAP([]byte(sampleRDAP))
	require.NoError(t, err)

	require.Equal(t, "Example Registrar, Inc.", rec.Registrar)
	require.Equal(t, []string{"a.iana-servers.net", "b.iana-servers.net"}, rec.NameServers)
	require.Equal(t, []string{"client delete prohibited", "client transfer prohibited"}, rec.Status)
	require.Equal(t, "Example Holdings", rec.RegistrantName)
	require.Equal(t, "owner@example.com", rec.RegistrantEmail)
	require.Equal(t, "admin@example-registrar.com", rec.AdminEmail)
	require.Equal(t, "hostmaster@example.com", rec.TechEmail)

	require.Equal(t, time.Date(1995, 8, 14, 4, 0, 0, 0, time.UTC), *rec.CreationDate)
	require.Equal(t, time.Date(2026, 8, 13, 4, 0, 0, 0, time.UTC), *rec.ExpirationDate)
	require.Equal(t, time.Date(2025, 8, 14, 7, 1, 44, 0, time.UTC), *rec.UpdatedDate)
}

func TestParseRDAPDatabaseUpdateFallback(t *testing.T) {
	body := `{"events": [{"eventAction": "last update of RDAP database", "eventDate": "2025-01-01T00:00:00Z"}]}`
	rec, obs, err := ParseRDAP([]byte(body))
	require.NoError(t, err)
	require.NotNil(t, rec.UpdatedDate)
	require.NotEmpty(t, obs)
}

func TestParseRDAPOrgWithUnits(t *testing.T) {
	body := `{"entities": [{"roles": ["registrar"], "vcardArray": ["vcard", [
		["org", {}, "text", ["MarkMonitor Inc.", "Registrar Services"]]
	]]}]}`
	rec, _, err := ParseRDAP([]byte(body))
	require.NoError(t, err)
	require.Equal(t, "MarkMonitor Inc.", rec.Registrar)
}

func TestParseRDAPBadJSONIsProtocolError(t *testing.T) {
	_, _, err := ParseRDAP([]byte("<html>not json</html>"))
	require.Error(t, err)
	require.True(t, errors.Is(err, models.ErrProtocol))
}

func TestParseRDAPEmptyObject(t *testing.T) {
	rec, _, err := ParseRDAP([]byte("{}"))
	require.NoError(t, err)
	require.Empty(t, rec.Registrar)
	require.Nil(t, rec.CreationDate)
	require.Empty(t, rec.NameServers)
}
