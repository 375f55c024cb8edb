package invoicing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/salesledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvoice(t *testing.T) {
	customerID := uuid.New()

	t.Run("creates invoice with generated reference and items", func(t *testing.T) {
		inv, err := NewInvoice(customerID, decimal.NewFromInt(100), []ItemInput{
			{SKU: "A", Quantity: 2},
			{SKU: "B", Quantity: 3},
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, inv.ID)
		assert.Equal(t, customerID, inv.CustomerID)
		assert.NotEmpty(t, inv.Reference)
		require.Len(t, inv.Items, 2)
		assert.Equal(t, "A", inv.Items[0].SKU)
		assert.Equal(t, 0, inv.Items[0].Position)
		assert.Equal(t, inv.ID, inv.Items[0].InvoiceID)
		assert.Equal(t, 1, inv.Items[1].Position)
	})

	t.Run("generates a distinct reference per invoice", func(t *testing.T) {
		a, err := NewInvoice(customerID, decimal.NewFromInt(10), nil)
		require.NoError(t, err)
		b, err := NewInvoice(customerID, decimal.NewFromInt(10), nil)
		require.NoError(t, err)

		assert.NotEqual(t, a.Reference, b.Reference)
	})

	t.Run("allows empty items collection", func(t *testing.T) {
		inv, err := NewInvoice(customerID, decimal.NewFromFloat(0.01), []ItemInput{})

		require.NoError(t, err)
		assert.Equal(t, 0, inv.ItemCount())
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
			_, err := NewInvoice(customerID, amount, nil)

			require.Error(t, err)
			var domainErr *shared.DomainError
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		}
	})

	t.Run("rejects item with empty SKU", func(t *testing.T) {
		_, err := NewInvoice(customerID, decimal.NewFromInt(10), []ItemInput{{SKU: "", Quantity: 1}})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("rejects item with non-positive quantity", func(t *testing.T) {
		_, err := NewInvoice(customerID, decimal.NewFromInt(10), []ItemInput{{SKU: "A", Quantity: 0}})

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
	})

	t.Run("rejects empty customer ID", func(t *testing.T) {
		_, err := NewInvoice(uuid.Nil, decimal.NewFromInt(10), nil)

		assert.Error(t, err)
	})
}

func TestInvoice_BelongsTo(t *testing.T) {
	customerID := uuid.New()
	inv, err := NewInvoice(customerID, decimal.NewFromInt(10), nil)
	require.NoError(t, err)

	assert.True(t, inv.BelongsTo(customerID))
	assert.False(t, inv.BelongsTo(uuid.New()))
}

func TestQuotaConstant(t *testing.T) {
	assert.Equal(t, 33, MaxInvoicesPerCustomer)
}
