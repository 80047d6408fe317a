package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// AddressKey is the canonical identifier derived from a street/postal/city
// triple: "<street-slug>_<postal-code>_<city-slug>". It doubles as the
// canteen document key.
type AddressKey string

var (
	careOfPrefix  = regexp.MustCompile(`(?i)^c/o\s+`)
	disallowed    = regexp.MustCompile(`[^a-zæøå0-9\s-]`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Canonicalize normalizes an address into a stable key.
// "Forusbeen 50", "4035", "STAVANGER" -> "forusbeen-50_4035_stavanger".
// Deterministic and idempotent: canonical parts map onto themselves.
func Canonicalize(street, postalCode, city string) (AddressKey, error) {
	cleanPostal := strings.TrimSpace(postalCode)
	if strings.TrimSpace(street) == "" || cleanPostal == "" || strings.TrimSpace(city) == "" {
		return "", fmt.Errorf("%w: street, postal code and city are all required", ErrInvalidAddress)
	}

	cleanStreet := slugify(careOfPrefix.ReplaceAllString(street, ""))
	cleanCity := slugify(city)
	if cleanStreet == "" || cleanCity == "" {
		return "", fmt.Errorf("%w: address reduces to an empty slug", ErrInvalidAddress)
	}

	return AddressKey(cleanStreet + "_" + cleanPostal + "_" + cleanCity), nil
}

// slugify lower-cases, strips everything outside [a-zæøå0-9 space hyphen],
// and collapses internal whitespace to hyphens.
func slugify(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	s = disallowed.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return whitespaceRun.ReplaceAllString(s, "-")
}

func (k AddressKey) String() string {
	return string(k)
}
