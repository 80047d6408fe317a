package domain

import "time"

// Address carries the structured address of a company as returned by the
// business directory.
type Address struct {
	Street             string
	PostalCode         string
	City               string
	Municipality       string
	MunicipalityNumber string
}

// Company is a directory record. Address is nil when the registry holds no
// usable address for the organisation.
type Company struct {
	OrgNumber string
	Name      string
	Address   *Address
}

// BaseAddressKey canonicalizes the company's address into the address-level
// key shared by all canteens at that location.
func (c Company) BaseAddressKey() (AddressKey, error) {
	if c.Address == nil {
		return "", ErrCompanyMissingAddress
	}
	return Canonicalize(c.Address.Street, c.Address.PostalCode, c.Address.City)
}

// CompanyMembership is the by-value copy of a company stored on a canteen.
// Unique by org number within one canteen.
type CompanyMembership struct {
	OrgNumber string
	Name      string
	AddedAt   time.Time
}

// CompanyHit is a single result from a directory name search.
type CompanyHit struct {
	OrgNumber string
	Name      string
	Address   string
}
