package normalize

import "strings"

var (
	gmailDomains   = map[string]bool{"gmail.com": true, "googlemail.com": true}
	plusSubDomains = map[string]bool{
		"outlook.com": true, "hotmail.com": true, "live.com": true,
		"icloud.com": true, "me.com": true,
	}
	yahooDomains = map[string]bool{"yahoo.com": true, "ymail.com": true, "rocketmail.com": true}
)

// Email returns the canonical form of an email address used for storage and
// lookups. The address is trimmed and lower-cased; for the large webmail
// providers the provider-specific aliases are folded as well (gmail dots,
// "+tag" and yahoo "-tag" subaddresses, googlemail.com → gmail.com).
// Input without exactly one "@" is only trimmed and lower-cased.
func Email(e string) string {
	e = strings.ToLower(strings.TrimSpace(e))
	local, domain, ok := strings.Cut(e, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return e
	}

	switch {
	case gmailDomains[domain]:
		local = cutSubaddress(local, "+")
		local = strings.ReplaceAll(local, ".", "")
		domain = "gmail.com"
	case plusSubDomains[domain]:
		local = cutSubaddress(local, "+")
	case yahooDomains[domain]:
		local = cutSubaddress(local, "-")
	}
	if local == "" {
		return e
	}
	return local + "@" + domain
}

func cutSubaddress(local, sep string) string {
	before, _, _ := strings.Cut(local, sep)
	return before
}
