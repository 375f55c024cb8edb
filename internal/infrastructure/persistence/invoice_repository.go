package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/invoicing"
	"github.com/salesledger/backend/internal/domain/shared"
	"github.com/salesledger/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// Create persists the invoice and its items in a single transaction.
// A duplicate reference surfaces as a write conflict rather than a raw driver error.
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrWriteConflict
		}
		return err
	}
	return nil
}

// FindByID finds an invoice with its items, scoped to the customer.
// An invoice owned by another customer reports NOT_FOUND.
func (r *GormInvoiceRepository) FindByID(ctx context.Context, customerID, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("customer_id = ? AND id = ?", customerID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByQuery finds the customer's invoices matching the query predicate
func (r *GormInvoiceRepository) FindByQuery(ctx context.Context, customerID uuid.UUID, query invoicing.Query) ([]invoicing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	q := r.applyQuery(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("customer_id = ?", customerID), query).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("created_at ASC")

	if query.Paged {
		q = q.Offset(query.Offset).Limit(query.Limit)
	}

	if err := q.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoicing.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// CountByQuery counts the customer's invoices matching the query predicate,
// ignoring pagination
func (r *GormInvoiceRepository) CountByQuery(ctx context.Context, customerID uuid.UUID, query invoicing.Query) (int64, error) {
	var count int64
	q := r.applyQuery(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("customer_id = ?", customerID), query)
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByCustomer counts all invoices held by the customer
func (r *GormInvoiceRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes the invoice and its items in one transaction.
// Items are deleted explicitly; the FK cascade is only a backstop.
func (r *GormInvoiceRepository) Delete(ctx context.Context, customerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("customer_id = ? AND id = ?", customerID, id).Delete(&models.InvoiceModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItemModel{}).Error
	})
}

// FindByCustomerAndPeriod returns the customer's invoices created within
// [from, to], both ends inclusive
func (r *GormInvoiceRepository) FindByCustomerAndPeriod(ctx context.Context, customerID uuid.UUID, from, to time.Time) ([]invoicing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("customer_id = ? AND created_at >= ? AND created_at <= ?", customerID, from, to).
		Order("created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}

	invoices := make([]invoicing.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// DistinctCustomerIDs enumerates every customer that holds at least one invoice
func (r *GormInvoiceRepository) DistinctCustomerIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Distinct("customer_id").
		Pluck("customer_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// applyQuery applies the date and amount predicates without pagination
func (r *GormInvoiceRepository) applyQuery(q *gorm.DB, query invoicing.Query) *gorm.DB {
	q = q.Where("created_at >= ? AND created_at <= ?", query.StartDate, query.EndDate)
	if query.MinAmount != nil {
		q = q.Where("amount >= ?", *query.MinAmount)
	}
	if query.MaxAmount != nil {
		q = q.Where("amount <= ?", *query.MaxAmount)
	}
	return q
}

// isUniqueViolation reports whether the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// pgx surfaces SQLSTATE 23505 for unique violations
	return strings.Contains(err.Error(), "23505") ||
		strings.Contains(strings.ToLower(err.Error()), "duplicate key")
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
