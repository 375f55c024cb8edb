package invoicing

import (
	"time"

	"github.com/salesledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Default pagination values applied when the caller pages without
// specifying page or limit explicitly.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Criteria holds the optional filter parameters for invoice retrieval.
// All fields are optional; nil means "not supplied".
type Criteria struct {
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Page      *int
	Limit     *int
}

// Query is the normalized predicate plus pagination produced by Criteria.Build.
type Query struct {
	StartDate time.Time
	EndDate   time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Limit     int
	Offset    int
	// Paged indicates the caller explicitly requested pagination.
	// Only then does retrieval issue a count query and populate page metadata.
	Paged bool
}

// Build normalizes the criteria into a query predicate.
// A missing start date defaults to the Unix epoch and a missing end date to
// now. Date and amount bounds are all inclusive. An inverted date range is
// not an error; it simply matches nothing. Non-positive page or limit values
// are a caller error.
func (c Criteria) Build() (Query, error) {
	if c.Page != nil && *c.Page < 1 {
		return Query{}, shared.NewDomainError("INVALID_INPUT", "Page must be at least 1")
	}
	if c.Limit != nil && *c.Limit < 1 {
		return Query{}, shared.NewDomainError("INVALID_INPUT", "Limit must be at least 1")
	}

	q := Query{
		StartDate: time.Unix(0, 0).UTC(),
		EndDate:   time.Now(),
		MinAmount: c.MinAmount,
		MaxAmount: c.MaxAmount,
	}
	if c.StartDate != nil {
		q.StartDate = *c.StartDate
	}
	if c.EndDate != nil {
		q.EndDate = *c.EndDate
	}

	q.Paged = c.Page != nil || c.Limit != nil
	page := DefaultPage
	q.Limit = DefaultLimit
	if c.Page != nil {
		page = *c.Page
	}
	if c.Limit != nil {
		q.Limit = *c.Limit
	}
	q.Offset = (page - 1) * q.Limit

	return q, nil
}

// PageNumber derives the 1-based page number back from the offset
func (q Query) PageNumber() int {
	if q.Limit <= 0 {
		return DefaultPage
	}
	return q.Offset/q.Limit + 1
}
