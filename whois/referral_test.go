package whois

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dap-ware/whodis/models"
)

func TestExtractReferralDirectives(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want models.ServerSpec
	}{
		{
			name: "refer",
			raw:  "refer:        whois.example.net\n",
			want: models.WhoisServer("whois.example.net", 43),
		},
		{
			name: "whois server",
			raw:  "   Whois Server: whois.markmonitor.com\n",
			want: models.WhoisServer("whois.markmonitor.com", 43),
		},
		{
			name: "registrar whois server",
			raw:  "Registrar WHOIS Server: whois.example-registrar.com\r\n",
			want: models.WhoisServer("whois.example-registrar.com", 43),
		},
		{
			name: "referral url to rdap",
			raw:  "Referral URL: https://rdap.example.net/rdap\n",
			want: models.RDAPServer("https://rdap.example.net/rdap"),
		},
		{
			name: "host with port",
			raw:  "refer: whois.example.net:4343\n",
			want: models.WhoisServer("whois.example.net", 4343),
		},
		{
			name: "case insensitive key",
			raw:  "REFER: WHOIS.EXAMPLE.NET\n",
			want: models.WhoisServer("whois.example.net", 43),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractReferral(tc.raw)
			require.True(t, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestExtractReferralAbsent(t *testing.T) {
	for _, raw := range []string{
		"",
		"Domain Name: example.com\nRegistrar: Example\n",
		"% refer: commented.example.net\n",
		"refer:\n",
	} {
		_, ok := ExtractReferral(raw)
		require.False(t, ok, "raw %q", raw)
	}
}

func TestParseTargetRejectsJunk(t *testing.T) {
	for _, target := range []string{"", "not a host", "host:notaport", "host:-1"} {
		_, ok := ParseTarget(target)
		require.False(t, ok, "target %q", target)
	}
}
