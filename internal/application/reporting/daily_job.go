package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/invoicing"
	"go.uber.org/zap"
)

// DailyReportJobConfig holds tuning for the daily batch run
type DailyReportJobConfig struct {
	// MaxConcurrentJobs bounds how many customers are summarized at once
	MaxConcurrentJobs int
	// JobTimeout is the maximum time a single customer's summary may take
	JobTimeout time.Duration
}

// DailyReportJob runs the daily aggregation over every known customer.
// Customers are independent: one customer's failure is logged and skipped,
// never aborting the rest of the batch.
type DailyReportJob struct {
	config     DailyReportJobConfig
	repo       invoicing.InvoiceRepository
	aggregator *AggregationService
	dispatcher *ReportDispatcher
	logger     *zap.Logger
}

// NewDailyReportJob creates a new DailyReportJob
func NewDailyReportJob(
	config DailyReportJobConfig,
	repo invoicing.InvoiceRepository,
	aggregator *AggregationService,
	dispatcher *ReportDispatcher,
	logger *zap.Logger,
) *DailyReportJob {
	if config.MaxConcurrentJobs < 1 {
		config.MaxConcurrentJobs = 1
	}
	return &DailyReportJob{
		config:     config,
		repo:       repo,
		aggregator: aggregator,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Run summarizes today's sales for every customer and enqueues their
// reports. Run never returns an error: batch-level failures are logged,
// and per-customer failures are isolated.
func (j *DailyReportJob) Run(ctx context.Context) {
	day := time.Now()
	j.logger.Info("starting daily report run", zap.String("day", day.Format("2006-01-02")))

	customerIDs, err := j.repo.DistinctCustomerIDs(ctx)
	if err != nil {
		j.logger.Error("failed to enumerate customers for daily report", zap.Error(err))
		return
	}

	sem := make(chan struct{}, j.config.MaxConcurrentJobs)
	var succeeded, failed int
	done := make(chan bool, len(customerIDs))

	for _, customerID := range customerIDs {
		customerID := customerID
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			done <- j.runForCustomer(ctx, customerID, day)
		}()
	}

	for range customerIDs {
		if <-done {
			succeeded++
		} else {
			failed++
		}
	}

	j.logger.Info("daily report run finished",
		zap.Int("customers", len(customerIDs)),
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
	)
}

// runForCustomer summarizes and dispatches one customer's report, bounded
// by the job timeout
func (j *DailyReportJob) runForCustomer(ctx context.Context, customerID uuid.UUID, day time.Time) bool {
	if j.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.JobTimeout)
		defer cancel()
	}

	summary, err := j.aggregator.Summarize(ctx, customerID, day)
	if err != nil {
		j.logger.Error("failed to summarize customer sales",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
		return false
	}

	if err := j.dispatcher.Dispatch(ctx, summary); err != nil {
		j.logger.Error("failed to dispatch customer report",
			zap.String("customer_id", customerID.String()),
			zap.Error(err),
		)
		return false
	}

	return true
}
