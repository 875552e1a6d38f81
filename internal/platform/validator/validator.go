// Package validator implements syntactic domain acceptance and
// normalization for candidate subdomains.
package validator

import (
	"net"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// LabelPattern is the regex fragment for a single DNS label. It is shared
// with the orchestrator's scope filter.
const LabelPattern = `[A-Za-z0-9]([A-Za-z0-9-]{0,61}[A-Za-z0-9])?`

var domainRe = regexp.MustCompile(`^(` + LabelPattern + `\.)+` + LabelPattern + `$`)

// Normalize lowercases, trims surrounding whitespace, and strips a single
// leading "*." wildcard label. No other transformation is applied.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "*.")
	return s
}

// IsValid reports whether s is an acceptable domain name.
//
// Accepted only if: length <= 253, s is not an IP literal, its IDN-encoded
// ASCII form matches a dotted sequence of valid labels, and the final label
// is at least two characters long and either punycoded or free of digits.
// The digit rule rejects the synthetic numeric TLDs that discovery tools
// sometimes emit ("foo.1") while keeping punycoded IDNs.
func IsValid(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}

	// Reject raw IP literals (v4 and v6).
	if net.ParseIP(s) != nil {
		return false
	}

	ascii, err := ToASCII(s)
	if err != nil {
		return false
	}

	if !domainRe.MatchString(ascii) {
		return false
	}

	labels := strings.Split(ascii, ".")
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	if !strings.HasPrefix(strings.ToLower(tld), "xn--") && containsDigit(tld) {
		return false
	}

	return true
}

// ToASCII converts a possibly internationalized domain name to its
// punycoded ASCII form.
func ToASCII(s string) (string, error) {
	return idna.Lookup.ToASCII(s)
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
