package resolver

// Static server tables generated out-of-band from the IANA bootstrap
// registry and the published registry whois hosts. They cover the TLDs
// behind the bulk of lookup traffic; everything else goes through live
// directory discovery.

// rdapBases maps a TLD to its RDAP base URLs, in the order they should
// be tried.
var rdapBases = map[string][]string{
	"com": {"https://rdap.verisign.com/com/v1"},
	"net": {"https://rdap.verisign.com/net/v1"},
	"cc":  {"https://rdap.verisign.com/cc/v1"},
	"tv":  {"https://rdap.verisign.com/tv/v1"},
	"org": {"https://rdap.publicinterestregistry.org/rdap"},
	"info": {"https://rdap.identitydigital.services/rdap"},
	"mobi": {"https://rdap.identitydigital.services/rdap"},
	"pro":  {"https://rdap.identitydigital.services/rdap"},
	"app":  {"https://www.registry.google/rdap"},
	"dev":  {"https://www.registry.google/rdap"},
	"page": {"https://www.registry.google/rdap"},
	"xyz":  {"https://rdap.centralnic.com/xyz"},
	"site": {"https://rdap.centralnic.com/site"},
	"online": {"https://rdap.centralnic.com/online"},
	"store":  {"https://rdap.centralnic.com/store"},
	"tech":   {"https://rdap.centralnic.com/tech"},
	"fun":    {"https://rdap.centralnic.com/fun"},
	"io":     {"https://rdap.identitydigital.services/rdap"},
	"sh":     {"https://rdap.identitydigital.services/rdap"},
	"ac":     {"https://rdap.identitydigital.services/rdap"},
	"uk":     {"https://rdap.nominet.uk/uk"},
	"co.uk":  {"https://rdap.nominet.uk/uk"},
	"org.uk": {"https://rdap.nominet.uk/uk"},
	"me.uk":  {"https://rdap.nominet.uk/uk"},
	"fr":     {"https://rdap.nic.fr"},
	"nl":     {"https://rdap.sidn.nl"},
	"be":     {"https://rdap.dnsbelgium.be/rdap"},
	"ca":     {"https://rdap.ca.fury.ca/rdap"},
	"us":     {"https://rdap.nic.us"},
	"co":     {"https://rdap.nic.co"},
	"me":     {"https://rdap.nic.me"},
	"top":    {"https://rdap.nic.top"},
	"vip":    {"https://rdap.nic.vip"},
	"club":   {"https://rdap.nic.club"},
	"shop":   {"https://rdap.nic.shop"},
	"blog":   {"https://rdap.nic.blog"},
	"live":   {"https://rdap.nic.live"},
	"cz":     {"https://rdap.nic.cz"},
	"at":     {"https://rdap.nic.at"},
	"ch":     {"https://rdap.nic.ch"},
	"li":     {"https://rdap.nic.li"},
	"se":     {"https://rdap.iis.se"},
	"nu":     {"https://rdap.iis.nu"},
	"fi":     {"https://rdap.fi"},
	"dk":     {"https://rdap.dk-hostmaster.dk"},
	"no":     {"https://rdap.norid.no"},
	"br":     {"https://rdap.registro.br"},
	"com.br": {"https://rdap.registro.br"},
	"ar":     {"https://rdap.nic.ar"},
	"mx":     {"https://rdap.mx"},
	"in":     {"https://rdap.registry.in"},
	"au":     {"https://rdap.auda.org.au"},
	"com.au": {"https://rdap.auda.org.au"},
	"nz":     {"https://rdap.srs.net.nz"},
	"jp":     {"https://rdap.jprs.jp"},
	"cn":     {"https://rdap.cnnic.cn"},
	"tw":     {"https://rdap.twnic.tw"},
	"sg":     {"https://rdap.sgnic.sg"},
	"hk":     {"https://rdap.hkirc.hk"},
	"kr":     {"https://rdap.kr"},
	"ae":     {"https://rdap.aeda.net.ae"},
	"za":     {"https://rdap.registry.net.za"},
}

// whoisHosts maps a TLD to the registry whois host answering on port 43.
var whoisHosts = map[string]string{
	"com":  "whois.verisign-grs.com",
	"net":  "whois.verisign-grs.com",
	"cc":   "ccwhois.verisign-grs.com",
	"tv":   "tvwhois.verisign-grs.com",
	"org":  "whois.pir.org",
	"info": "whois.afilias.net",
	"biz":  "whois.nic.biz",
	"name": "whois.nic.name",
	"pro":  "whois.nic.pro",
	"edu":  "whois.educause.edu",

	"xyz":    "whois.nic.xyz",
	"top":    "whois.nic.top",
	"shop":   "whois.nic.shop",
	"online": "whois.nic.online",
	"store":  "whois.nic.store",
	"site":   "whois.nic.site",
	"app":    "whois.nic.google",
	"dev":    "whois.nic.google",
	"page":   "whois.nic.google",
	"tech":   "whois.nic.tech",
	"blog":   "whois.nic.blog",
	"club":   "whois.nic.club",
	"live":   "whois.nic.live",
	"fun":    "whois.nic.fun",
	"vip":    "whois.nic.vip",
	"io":     "whois.nic.io",
	"sh":     "whois.nic.sh",
	"ac":     "whois.nic.ac",
	"ai":     "whois.nic.ai",
	"me":     "whois.nic.me",
	"co":     "whois.nic.co",
	"so":     "whois.nic.so",

	"uk":     "whois.nic.uk",
	"co.uk":  "whois.nic.uk",
	"org.uk": "whois.nic.uk",
	"me.uk":  "whois.nic.uk",
	"de":     "whois.denic.de",
	"fr":     "whois.nic.fr",
	"it":     "whois.nic.it",
	"es":     "whois.nic.es",
	"nl":     "whois.domain-registry.nl",
	"be":     "whois.dns.be",
	"ch":     "whois.nic.ch",
	"li":     "whois.nic.li",
	"at":     "whois.nic.at",
	"se":     "whois.iis.se",
	"nu":     "whois.iis.nu",
	"no":     "whois.norid.no",
	"dk":     "whois.dk-hostmaster.dk",
	"fi":     "whois.fi",
	"pl":     "whois.dns.pl",
	"cz":     "whois.nic.cz",
	"sk":     "whois.sk-nic.sk",
	"hu":     "whois.nic.hu",
	"ro":     "whois.rotld.ro",
	"bg":     "whois.register.bg",
	"hr":     "whois.dns.hr",
	"si":     "whois.register.si",
	"lt":     "whois.domreg.lt",
	"lv":     "whois.nic.lv",
	"ee":     "whois.tld.ee",
	"pt":     "whois.dns.pt",
	"gr":     "whois.nic.gr",
	"ie":     "whois.weare.ie",

	"jp":     "whois.jprs.jp",
	"co.jp":  "whois.jprs.jp",
	"kr":     "whois.kr",
	"cn":     "whois.cnnic.cn",
	"com.cn": "whois.cnnic.cn",
	"hk":     "whois.hkirc.hk",
	"tw":     "whois.twnic.net.tw",
	"sg":     "whois.sgnic.sg",
	"my":     "whois.mynic.my",
	"th":     "whois.thnic.co.th",
	"id":     "whois.id",
	"ph":     "whois.dot.ph",
	"vn":     "whois.vnnic.vn",
	"in":     "whois.registry.in",
	"co.in":  "whois.registry.in",
	"au":     "whois.auda.org.au",
	"com.au": "whois.auda.org.au",
	"nz":     "whois.srs.net.nz",
	"co.nz":  "whois.srs.net.nz",

	"ca":     "whois.cira.ca",
	"us":     "whois.nic.us",
	"mx":     "whois.mx",
	"br":     "whois.registro.br",
	"com.br": "whois.registro.br",
	"ar":     "whois.nic.ar",
	"cl":     "whois.nic.cl",
	"pe":     "kero.yachay.pe",
	"uy":     "whois.nic.org.uy",
	"ve":     "whois.nic.ve",

	"ru": "whois.tcinet.ru",
	"su": "whois.tcinet.ru",
	"ua": "whois.ua",
	"by": "whois.cctld.by",
	"kz": "whois.nic.kz",

	"il":    "whois.isoc.org.il",
	"tr":    "whois.nic.tr",
	"ae":    "whois.aeda.net.ae",
	"sa":    "whois.nic.net.sa",
	"za":    "whois.registry.net.za",
	"co.za": "whois.registry.net.za",
}

// RDAPBasesFor returns the bootstrap RDAP base URLs for a TLD, in
// preference order, or nil.
func RDAPBasesFor(tld string) []string {
	return append([]string(nil), rdapBases[tld]...)
}

// WhoisHostFor returns the bootstrap whois host for a TLD, or "".
func WhoisHostFor(tld string) string {
	return whoisHosts[tld]
}
