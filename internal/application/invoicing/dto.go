package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// CreateInvoiceItemRequest is one line item of an invoice creation request
type CreateInvoiceItemRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required"`
}

// CreateInvoiceRequest is the payload for recording a new invoice
type CreateInvoiceRequest struct {
	Amount decimal.Decimal            `json:"amount" binding:"required"`
	Items  []CreateInvoiceItemRequest `json:"items"`
}

// InvoiceItemResponse represents a line item in API responses
type InvoiceItemResponse struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID         uuid.UUID             `json:"id"`
	CustomerID uuid.UUID             `json:"customer_id"`
	Amount     decimal.Decimal       `json:"amount"`
	Reference  string                `json:"reference"`
	Items      []InvoiceItemResponse `json:"items"`
	CreatedAt  time.Time             `json:"created_at"`
}

// PageMeta holds pagination metadata, present only when the caller
// explicitly requested pagination
type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// InvoiceListResponse is the result of an invoice listing
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Meta     *PageMeta         `json:"meta,omitempty"`
}

// ListInvoicesFilter represents query parameters for invoice listing.
// All fields are optional.
type ListInvoicesFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Page      *int
	Limit     *int
}

// ToCriteria converts the filter into domain retrieval criteria
func (f ListInvoicesFilter) ToCriteria() invoicing.Criteria {
	return invoicing.Criteria{
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		MinAmount: f.MinAmount,
		MaxAmount: f.MaxAmount,
		Page:      f.Page,
		Limit:     f.Limit,
	}
}

// ToInvoiceResponse converts a domain invoice to its API representation
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	items := make([]InvoiceItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = InvoiceItemResponse{
			SKU:      item.SKU,
			Quantity: item.Quantity,
		}
	}
	return InvoiceResponse{
		ID:         inv.ID,
		CustomerID: inv.CustomerID,
		Amount:     inv.Amount,
		Reference:  inv.Reference,
		Items:      items,
		CreatedAt:  inv.CreatedAt,
	}
}
