package domain

import "errors"

// Sentinel errors shared across the registry. Handlers translate these with
// errors.Is; infrastructure wraps them with %w and never invents new kinds.
var (
	// ErrInvalidAddress signals that an address triple could not be canonicalized.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrCompanyMissingAddress signals a directory record without usable address data.
	ErrCompanyMissingAddress = errors.New("company record has no address")

	// ErrInvalidReview signals review input outside the accepted bounds.
	ErrInvalidReview = errors.New("invalid review")

	// ErrCanteenNotFound signals a lookup or transaction against an absent canteen.
	ErrCanteenNotFound = errors.New("canteen not found")

	// ErrReviewNotFound signals an edit against a review that does not exist.
	ErrReviewNotFound = errors.New("review not found")

	// ErrNotOwner signals an edit attempted by a client other than the submitter.
	ErrNotOwner = errors.New("review belongs to another client")

	// ErrTransactionConflict is returned once the bounded retries for a
	// contended document-store transaction are exhausted.
	ErrTransactionConflict = errors.New("transaction conflict, retries exhausted")

	// ErrUpstreamLookup covers directory/geocoding failures. Callers degrade
	// gracefully; it never blocks review ingestion.
	ErrUpstreamLookup = errors.New("upstream lookup failed")
)
