package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/reporting"
)

// reportSubject is the fixed subject line of the daily summary email
const reportSubject = "Daily Sales Summary"

// StaticCustomerDirectory formats customer addresses as user<id>@<domain>.
// It stands in until a real customer directory is integrated.
type StaticCustomerDirectory struct {
	domain string
}

// NewStaticCustomerDirectory creates a directory for the given mail domain
func NewStaticCustomerDirectory(domain string) *StaticCustomerDirectory {
	return &StaticCustomerDirectory{domain: domain}
}

// EmailFor returns the customer's notification address
func (d *StaticCustomerDirectory) EmailFor(ctx context.Context, customerID uuid.UUID) (string, error) {
	return fmt.Sprintf("user%s@%s", customerID, d.domain), nil
}

// Ensure StaticCustomerDirectory implements CustomerDirectory
var _ reporting.CustomerDirectory = (*StaticCustomerDirectory)(nil)

// ReportDispatcher turns a sales summary into a dispatch job and enqueues
// it. Publishing acknowledges the enqueue only; delivery happens in the
// worker, at-least-once.
type ReportDispatcher struct {
	directory reporting.CustomerDirectory
	publisher reporting.Publisher
}

// NewReportDispatcher creates a new ReportDispatcher
func NewReportDispatcher(directory reporting.CustomerDirectory, publisher reporting.Publisher) *ReportDispatcher {
	return &ReportDispatcher{
		directory: directory,
		publisher: publisher,
	}
}

// Dispatch resolves the customer's address, renders the summary, and
// enqueues the notification
func (d *ReportDispatcher) Dispatch(ctx context.Context, summary *reporting.SalesSummary) error {
	email, err := d.directory.EmailFor(ctx, summary.CustomerID)
	if err != nil {
		return fmt.Errorf("failed to resolve customer email: %w", err)
	}

	job := reporting.DispatchJob{
		Email:   email,
		Subject: reportSubject,
		Body:    renderBody(summary),
	}

	if err := d.publisher.Publish(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue report: %w", err)
	}
	return nil
}

// renderBody renders the plain-text report. SKUs are sorted so the output
// is stable for a given summary.
func renderBody(summary *reporting.SalesSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sales report for %s\n\n", summary.Date.Format("2006-01-02"))
	fmt.Fprintf(&b, "Total sales: %s\n", summary.TotalSales.StringFixed(2))

	if len(summary.QuantityBySKU) > 0 {
		b.WriteString("\nItems sold:\n")
		skus := make([]string, 0, len(summary.QuantityBySKU))
		for sku := range summary.QuantityBySKU {
			skus = append(skus, sku)
		}
		sort.Strings(skus)
		for _, sku := range skus {
			fmt.Fprintf(&b, "  %s: %d\n", sku, summary.QuantityBySKU[sku])
		}
	}

	return b.String()
}
