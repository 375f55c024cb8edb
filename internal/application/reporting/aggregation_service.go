package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/invoicing"
	"github.com/salesledger/backend/internal/domain/reporting"
)

// AggregationService computes per-customer sales summaries from the
// invoice ledger
type AggregationService struct {
	repo invoicing.InvoiceRepository
}

// NewAggregationService creates a new AggregationService
func NewAggregationService(repo invoicing.InvoiceRepository) *AggregationService {
	return &AggregationService{repo: repo}
}

// Summarize aggregates one customer's invoices for the calendar day
// containing the given time, both day ends inclusive. The result is a
// snapshot: invoices written after the read are not reflected.
func (s *AggregationService) Summarize(ctx context.Context, customerID uuid.UUID, day time.Time) (*reporting.SalesSummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999999999, day.Location())

	invoices, err := s.repo.FindByCustomerAndPeriod(ctx, customerID, start, end)
	if err != nil {
		return nil, err
	}

	summary := reporting.NewSalesSummary(customerID, start)
	for i := range invoices {
		summary.TotalSales = summary.TotalSales.Add(invoices[i].Amount)
		for _, item := range invoices[i].Items {
			summary.QuantityBySKU[item.SKU] += item.Quantity
		}
	}

	return summary, nil
}
