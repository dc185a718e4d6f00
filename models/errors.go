package models

import (
	"context"
	"errors"
	"net"
)

// Error kinds for lookup failures. Callers classify with errors.Is.
var (
	// ErrInvalidDomain indicates the input failed validation; never retried.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrUnsupportedTLD indicates the resolver found no servers for the TLD.
	ErrUnsupportedTLD = errors.New("unsupported tld")

	// ErrTimeout indicates a connect, read, or total-lookup deadline passed.
	ErrTimeout = errors.New("lookup timed out")

	// ErrNotFound indicates the authoritative source reported no such domain.
	ErrNotFound = errors.New("domain not found")

	// ErrTooLarge indicates a response exceeded the configured size cap.
	ErrTooLarge = errors.New("response too large")

	// ErrProtocol indicates a structurally unintelligible response body.
	ErrProtocol = errors.New("protocol decode failed")

	// ErrReferralLimit indicates the referral hop cap was reached.
	ErrReferralLimit = errors.New("referral limit reached")

	// ErrReferralLoop indicates a referral pointed back into the chain.
	ErrReferralLoop = errors.New("referral loop detected")
)

// ErrorKind names an error class for metrics labels and severity ranking.
type ErrorKind string

const (
	KindInvalidDomain  ErrorKind = "invalid_domain"
	KindUnsupportedTLD ErrorKind = "unsupported_tld"
	KindTimeout        ErrorKind = "timeout"
	KindNotFound       ErrorKind = "not_found"
	KindTooLarge       ErrorKind = "too_large"
	KindProtocol       ErrorKind = "protocol_decode"
	KindNetwork        ErrorKind = "network"
)

// Classify maps an error onto its kind. Anything unrecognized is a
// transport-level network failure.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidDomain):
		return KindInvalidDomain
	case errors.Is(err, ErrUnsupportedTLD):
		return KindUnsupportedTLD
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTooLarge):
		return KindTooLarge
	case errors.Is(err, ErrProtocol):
		return KindProtocol
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

// severity orders error kinds so the coordinator can surface the most
// telling failure after exhausting every server. Higher wins.
var severity = map[ErrorKind]int{
	KindNetwork:        1,
	KindProtocol:       2,
	KindTooLarge:       3,
	KindTimeout:        4,
	KindNotFound:       5,
	KindUnsupportedTLD: 6,
	KindInvalidDomain:  7,
}

// MoreSevere reports whether a outranks b.
func MoreSevere(a, b error) bool {
	if b == nil {
		return true
	}
	if a == nil {
		return false
	}
	return severity[Classify(a)] > severity[Classify(b)]
}
