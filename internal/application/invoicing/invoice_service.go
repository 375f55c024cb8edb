package invoicing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/invoicing"
	"github.com/salesledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InvoiceService handles invoice ledger operations. Writes for a customer
// are serialized through the customer locker so the per-customer quota
// cannot be exceeded by concurrent requests.
type InvoiceService struct {
	repo        invoicing.InvoiceRepository
	locker      invoicing.CustomerLocker
	lockTimeout time.Duration
	logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	repo invoicing.InvoiceRepository,
	locker invoicing.CustomerLocker,
	lockTimeout time.Duration,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		repo:        repo,
		locker:      locker,
		lockTimeout: lockTimeout,
		logger:      logger,
	}
}

// Create records a new invoice for the customer. Validation happens before
// the lock is taken; the quota check and the insert happen under it.
func (s *InvoiceService) Create(ctx context.Context, customerID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	items := make([]invoicing.ItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = invoicing.ItemInput{
			SKU:      item.SKU,
			Quantity: item.Quantity,
		}
	}

	invoice, err := invoicing.NewInvoice(customerID, req.Amount, items)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, customerID, s.lockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	count, err := s.repo.CountByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if count >= invoicing.MaxInvoicesPerCustomer {
		s.logger.Info("invoice quota reached",
			zap.String("customer_id", customerID.String()),
			zap.Int64("count", count),
		)
		return nil, shared.ErrQuotaExceeded
	}

	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("customer_id", customerID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("reference", invoice.Reference),
	)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// List retrieves the customer's invoices matching the filter. Page metadata
// is computed only when the caller explicitly requested pagination; an
// unpaged listing returns all matches without a count query.
func (s *InvoiceService) List(ctx context.Context, customerID uuid.UUID, filter ListInvoicesFilter) (*InvoiceListResponse, error) {
	query, err := filter.ToCriteria().Build()
	if err != nil {
		return nil, err
	}

	invoices, err := s.repo.FindByQuery(ctx, customerID, query)
	if err != nil {
		return nil, err
	}

	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}

	result := &InvoiceListResponse{Invoices: responses}

	if query.Paged {
		total, err := s.repo.CountByQuery(ctx, customerID, query)
		if err != nil {
			return nil, err
		}
		paginated := shared.NewPaginated(responses, total, query.PageNumber(), query.Limit)
		result.Meta = &PageMeta{
			Total:      paginated.Total,
			Page:       paginated.Page,
			Limit:      paginated.Limit,
			TotalPages: paginated.TotalPages,
		}
	}

	return result, nil
}

// GetByID retrieves a single invoice owned by the customer. An invoice
// owned by someone else reports NOT_FOUND, never a permission error.
func (s *InvoiceService) GetByID(ctx context.Context, customerID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.repo.FindByID(ctx, customerID, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// Delete removes the customer's invoice and its items. The customer lock
// keeps the deletion from racing a concurrent create's quota check.
func (s *InvoiceService) Delete(ctx context.Context, customerID, invoiceID uuid.UUID) error {
	release, err := s.locker.Acquire(ctx, customerID, s.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	if err := s.repo.Delete(ctx, customerID, invoiceID); err != nil {
		return err
	}

	s.logger.Info("invoice deleted",
		zap.String("customer_id", customerID.String()),
		zap.String("invoice_id", invoiceID.String()),
	)
	return nil
}
