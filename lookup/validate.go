package lookup

import (
	"fmt"
	"strings"

	"github.com/dap-ware/whodis/models"
)

const maxDomainLength = 253

// Normalize lowercases, trims surrounding whitespace, strips a single
// trailing dot, and validates the result. The returned key is what the
// cache and the wire queries use.
func Normalize(domain string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = strings.TrimSuffix(d, ".")
	if err := Validate(d); err != nil {
		return "", err
	}
	return d, nil
}

// Validate checks an ASCII/IDNA-form domain name: non-empty, at most
// 253 octets, at least one dot, labels of 1–63 letters/digits/hyphens
// with no leading or trailing hyphen.
func Validate(domain string) error {
	if domain == "" {
		return fmt.Errorf("%w: empty input", models.ErrInvalidDomain)
	}
	if len(domain) > maxDomainLength {
		return fmt.Errorf("%w: %d octets exceeds %d", models.ErrInvalidDomain, len(domain), maxDomainLength)
	}
	if !strings.Contains(domain, ".") {
		return fmt.Errorf("%w: %q has no dot", models.ErrInvalidDomain, domain)
	}
	for _, label := range strings.Split(domain, ".") {
		if err := validateLabel(label); err != nil {
			return fmt.Errorf("%w: %q: %v", models.ErrInvalidDomain, domain, err)
		}
	}
	return nil
}

func validateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("empty label")
	}
	if len(label) > 63 {
		return fmt.Errorf("label %q exceeds 63 octets", label)
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return fmt.Errorf("label %q has a leading or trailing hyphen", label)
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return fmt.Errorf("label %q contains %q", label, c)
		}
	}
	return nil
}
