package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceRepository defines persistence operations for the invoice ledger.
// All read and delete operations are scoped to a customer; an invoice owned
// by another customer is indistinguishable from a nonexistent one.
type InvoiceRepository interface {
	// Create persists an invoice together with its items in one transaction.
	Create(ctx context.Context, invoice *Invoice) error

	// FindByID finds an invoice (with items) owned by the given customer.
	FindByID(ctx context.Context, customerID, id uuid.UUID) (*Invoice, error)

	// FindByQuery returns the customer's invoices matching the query,
	// applying pagination when the query requests it.
	FindByQuery(ctx context.Context, customerID uuid.UUID, query Query) ([]Invoice, error)

	// CountByQuery counts the customer's invoices matching the query,
	// ignoring pagination.
	CountByQuery(ctx context.Context, customerID uuid.UUID, query Query) (int64, error)

	// CountByCustomer counts all invoices held by the customer.
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)

	// Delete removes the invoice and its items atomically.
	// Returns shared.ErrNotFound when no row was affected.
	Delete(ctx context.Context, customerID, id uuid.UUID) error

	// FindByCustomerAndPeriod returns the customer's invoices created within
	// [from, to], both ends inclusive.
	FindByCustomerAndPeriod(ctx context.Context, customerID uuid.UUID, from, to time.Time) ([]Invoice, error)

	// DistinctCustomerIDs enumerates every customer known to the ledger.
	DistinctCustomerIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CustomerLocker provides mutual exclusion scoped to a single customer's
// invoice set. Acquire blocks up to the given timeout and returns a release
// function, or shared.ErrLockTimeout when the wait is exceeded. Locks for
// different customers never contend.
type CustomerLocker interface {
	Acquire(ctx context.Context, customerID uuid.UUID, timeout time.Duration) (release func(), err error)
}
