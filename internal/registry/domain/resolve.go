package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// ResolutionAction tells the caller how a company maps onto the canteens at
// its address.
type ResolutionAction string

const (
	// ActionCreateFirst: no canteen exists at the address; the new canteen's
	// own key equals the base key.
	ActionCreateFirst ResolutionAction = "create_first"

	// ActionReuseExisting: the company already belongs to a canteen at the
	// address; re-registration is idempotent.
	ActionReuseExisting ResolutionAction = "reuse_existing"

	// ActionChoose: the company is new at an address that already has
	// canteens; the caller must pick an existing one or create another.
	ActionChoose ResolutionAction = "choose"

	// ActionCreateAdditional: the caller chose to add a canteen alongside the
	// existing ones; the server mints the next suffix key.
	ActionCreateAdditional ResolutionAction = "create_additional"
)

// Resolution is the outcome of mapping a company to a canteen identity.
type Resolution struct {
	Action     ResolutionAction
	Target     AddressKey
	Candidates []Canteen
}

// Resolve decides how a company relates to the canteens already registered
// at its base address. A returning organisation is never asked to
// disambiguate: membership in any sibling wins over the chooser.
func Resolve(orgNumber string, baseKey AddressKey, existing []Canteen) Resolution {
	if len(existing) == 0 {
		return Resolution{Action: ActionCreateFirst, Target: baseKey}
	}
	for _, canteen := range existing {
		if canteen.HasCompany(orgNumber) {
			return Resolution{Action: ActionReuseExisting, Target: canteen.AddressKey}
		}
	}
	return Resolution{Action: ActionChoose, Candidates: existing}
}

var siblingSuffix = regexp.MustCompile(`_(\d+)$`)

// NextSiblingKey mints the key for an additional canteen at a base address.
// The unsuffixed base key is slot 1; further canteens get "_<n>" where n is
// one greater than the highest suffix among the siblings, so the second
// canteen becomes "<base>_2".
func NextSiblingKey(baseKey AddressKey, existing []Canteen) AddressKey {
	if len(existing) == 0 {
		return baseKey
	}
	maxSuffix := 1
	for _, canteen := range existing {
		key := string(canteen.AddressKey)
		if key == string(baseKey) || !strings.HasPrefix(key, string(baseKey)) {
			continue
		}
		match := siblingSuffix.FindStringSubmatch(key)
		if match == nil {
			continue
		}
		if n, err := strconv.Atoi(match[1]); err == nil && n > maxSuffix {
			maxSuffix = n
		}
	}
	return AddressKey(string(baseKey) + "_" + strconv.Itoa(maxSuffix+1))
}
