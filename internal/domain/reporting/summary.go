package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesSummary is the aggregation result for one customer and one calendar
// day. It is ephemeral: produced and consumed within a single batch run,
// never persisted.
type SalesSummary struct {
	CustomerID    uuid.UUID        `json:"customer_id"`
	Date          time.Time        `json:"date"`
	TotalSales    decimal.Decimal  `json:"total_sales"`
	QuantityBySKU map[string]int64 `json:"quantity_by_sku"`
}

// NewSalesSummary creates an empty summary for a customer and day
func NewSalesSummary(customerID uuid.UUID, date time.Time) *SalesSummary {
	return &SalesSummary{
		CustomerID:    customerID,
		Date:          date,
		TotalSales:    decimal.Zero,
		QuantityBySKU: make(map[string]int64),
	}
}

// DispatchJob is a flattened, transport-agnostic notification awaiting
// delivery. Delivery is at-least-once at the transport level.
type DispatchJob struct {
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Publisher enqueues dispatch jobs onto a durable queue.
// Publish acknowledges the enqueue only, never the delivery.
type Publisher interface {
	Publish(ctx context.Context, job DispatchJob) error
}

// Sender delivers a dispatch job through an external transport.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// CustomerDirectory resolves the notification address for a customer.
type CustomerDirectory interface {
	EmailFor(ctx context.Context, customerID uuid.UUID) (string, error)
}
