package models

import (
	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate root.
type InvoiceModel struct {
	BaseModel
	CustomerID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Amount     decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Reference  string             `gorm:"type:varchar(64);not null;uniqueIndex"`
	Items      []InvoiceItemModel `gorm:"foreignKey:InvoiceID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceItemModel is the persistence model for invoice line items.
// Items belong to exactly one invoice and are removed with it.
type InvoiceItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
	SKU       string    `gorm:"type:varchar(255);not null"`
	Quantity  int64     `gorm:"not null"`
	Position  int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	inv := &invoicing.Invoice{
		BaseEntity: m.BaseModel.ToDomain(),
		CustomerID: m.CustomerID,
		Amount:     m.Amount,
		Reference:  m.Reference,
		Items:      make([]invoicing.InvoiceItem, len(m.Items)),
	}
	for i, item := range m.Items {
		inv.Items[i] = invoicing.InvoiceItem{
			ID:        item.ID,
			InvoiceID: item.InvoiceID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Position:  item.Position,
		}
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(inv *invoicing.Invoice) {
	m.FromDomainBaseEntity(inv.BaseEntity)
	m.CustomerID = inv.CustomerID
	m.Amount = inv.Amount
	m.Reference = inv.Reference
	m.Items = make([]InvoiceItemModel, len(inv.Items))
	for i, item := range inv.Items {
		m.Items[i] = InvoiceItemModel{
			ID:        item.ID,
			InvoiceID: item.InvoiceID,
			SKU:       item.SKU,
			Quantity:  item.Quantity,
			Position:  item.Position,
		}
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}
