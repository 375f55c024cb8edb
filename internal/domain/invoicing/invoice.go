package invoicing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxInvoicesPerCustomer is the maximum number of invoices a single customer may hold.
// Attempts to create more fail with QUOTA_EXCEEDED.
const MaxInvoicesPerCustomer = 33

// InvoiceItem is a line item owned exclusively by its parent invoice.
// Items are deleted with the invoice and are never shared across invoices.
type InvoiceItem struct {
	ID        uuid.UUID `json:"id"`
	InvoiceID uuid.UUID `json:"invoice_id"`
	SKU       string    `json:"sku"`
	Quantity  int64     `json:"quantity"`
	Position  int       `json:"position"`
}

// Invoice represents an invoice aggregate root.
// Invoices are immutable after creation; the only lifecycle transitions are
// create and delete.
type Invoice struct {
	shared.BaseEntity
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Reference  string          `json:"reference"`
	Items      []InvoiceItem   `json:"items"`
}

// ItemInput carries caller-supplied line item data for invoice creation.
type ItemInput struct {
	SKU      string
	Quantity int64
}

// NewInvoice creates a new invoice for a customer.
// The unique reference is generated here, never supplied by the caller.
func NewInvoice(customerID uuid.UUID, amount decimal.Decimal, items []ItemInput) (*Invoice, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice amount must be positive")
	}
	for i, item := range items {
		if item.SKU == "" {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Item %d: SKU cannot be empty", i))
		}
		if item.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Item %d: quantity must be positive", i))
		}
	}

	inv := &Invoice{
		BaseEntity: shared.NewBaseEntity(),
		CustomerID: customerID,
		Amount:     amount,
		Reference:  uuid.NewString(),
		Items:      make([]InvoiceItem, len(items)),
	}
	for i, item := range items {
		inv.Items[i] = InvoiceItem{
			ID:        uuid.New(),
			InvoiceID: inv.ID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Position:  i,
		}
	}
	return inv, nil
}

// ItemCount returns the number of line items
func (inv *Invoice) ItemCount() int {
	return len(inv.Items)
}

// BelongsTo returns true if the invoice is owned by the given customer
func (inv *Invoice) BelongsTo(customerID uuid.UUID) bool {
	return inv.CustomerID == customerID
}
