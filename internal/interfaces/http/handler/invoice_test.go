package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinvoicing "github.com/salesledger/backend/internal/application/invoicing"
	"github.com/salesledger/backend/internal/domain/invoicing"
	"github.com/salesledger/backend/internal/domain/shared"
	"github.com/salesledger/backend/internal/infrastructure/auth"
	"github.com/salesledger/backend/internal/infrastructure/cache"
	"github.com/salesledger/backend/internal/infrastructure/config"
	"github.com/salesledger/backend/internal/interfaces/http/middleware"
	"github.com/salesledger/backend/internal/interfaces/http/router"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeInvoiceRepository is an in-memory InvoiceRepository for handler tests
type fakeInvoiceRepository struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*invoicing.Invoice
}

func newFakeInvoiceRepository() *fakeInvoiceRepository {
	return &fakeInvoiceRepository{invoices: make(map[uuid.UUID]*invoicing.Invoice)}
}

func (r *fakeInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *invoice
	r.invoices[invoice.ID] = &copied
	return nil
}

func (r *fakeInvoiceRepository) FindByID(ctx context.Context, customerID, id uuid.UUID) (*invoicing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.CustomerID != customerID {
		return nil, shared.ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *fakeInvoiceRepository) FindByQuery(ctx context.Context, customerID uuid.UUID, query invoicing.Query) ([]invoicing.Invoice, error) {
	matches := r.matching(customerID, query)
	if query.Paged {
		if query.Offset >= len(matches) {
			return []invoicing.Invoice{}, nil
		}
		end := query.Offset + query.Limit
		if end > len(matches) {
			end = len(matches)
		}
		matches = matches[query.Offset:end]
	}
	return matches, nil
}

func (r *fakeInvoiceRepository) CountByQuery(ctx context.Context, customerID uuid.UUID, query invoicing.Query) (int64, error) {
	return int64(len(r.matching(customerID, query))), nil
}

func (r *fakeInvoiceRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, inv := range r.invoices {
		if inv.CustomerID == customerID {
			count++
		}
	}
	return count, nil
}

func (r *fakeInvoiceRepository) Delete(ctx context.Context, customerID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[id]
	if !ok || inv.CustomerID != customerID {
		return shared.ErrNotFound
	}
	delete(r.invoices, id)
	return nil
}

func (r *fakeInvoiceRepository) FindByCustomerAndPeriod(ctx context.Context, customerID uuid.UUID, from, to time.Time) ([]invoicing.Invoice, error) {
	query := invoicing.Query{StartDate: from, EndDate: to}
	return r.matching(customerID, query), nil
}

func (r *fakeInvoiceRepository) DistinctCustomerIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, inv := range r.invoices {
		if !seen[inv.CustomerID] {
			seen[inv.CustomerID] = true
			ids = append(ids, inv.CustomerID)
		}
	}
	return ids, nil
}

func (r *fakeInvoiceRepository) matching(customerID uuid.UUID, query invoicing.Query) []invoicing.Invoice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matches []invoicing.Invoice
	for _, inv := range r.invoices {
		if inv.CustomerID != customerID {
			continue
		}
		if inv.CreatedAt.Before(query.StartDate) || inv.CreatedAt.After(query.EndDate) {
			continue
		}
		if query.MinAmount != nil && inv.Amount.LessThan(*query.MinAmount) {
			continue
		}
		if query.MaxAmount != nil && inv.Amount.GreaterThan(*query.MaxAmount) {
			continue
		}
		matches = append(matches, *inv)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.Before(matches[j].CreatedAt) })
	return matches
}

type testEnv struct {
	engine     *gin.Engine
	repo       *fakeInvoiceRepository
	jwtService *auth.JWTService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeInvoiceRepository()
	service := appinvoicing.NewInvoiceService(repo, cache.NewInMemoryCustomerLocker(), time.Second, zap.NewNop())
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:          "handler-test-secret-32-characters!!",
		Issuer:          "salesledger-test",
		TokenExpiration: time.Hour,
	})

	engine := gin.New()
	r := router.NewRouter(engine, router.WithMiddleware(middleware.JWTAuthMiddleware(jwtService)))
	r.Register(NewInvoiceHandler(service, zap.NewNop()))
	r.Setup()

	return &testEnv{engine: engine, repo: repo, jwtService: jwtService}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) tokenFor(t *testing.T, customerID uuid.UUID) string {
	t.Helper()
	token, err := e.jwtService.GenerateToken(customerID, "customer@example.com")
	require.NoError(t, err)
	return token
}

func (e *testEnv) seedInvoices(t *testing.T, customerID uuid.UUID, n int) []uuid.UUID {
	t.Helper()
	ids := make([]uuid.UUID, n)
	for i := 0; i < n; i++ {
		inv, err := invoicing.NewInvoice(customerID, decimal.NewFromInt(int64(10+i)), []invoicing.ItemInput{
			{SKU: "SKU-1", Quantity: 1},
		})
		require.NoError(t, err)
		require.NoError(t, e.repo.Create(context.Background(), inv))
		ids[i] = inv.ID
	}
	return ids
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestInvoiceHandler_Create(t *testing.T) {
	t.Run("creates an invoice", func(t *testing.T) {
		env := newTestEnv(t)
		customerID := uuid.New()
		token := env.tokenFor(t, customerID)

		w := env.request(t, http.MethodPost, "/api/v1/invoices", token, gin.H{
			"amount": "120.50",
			"items": []gin.H{
				{"sku": "WIDGET-1", "quantity": 2},
			},
		})

		require.Equal(t, http.StatusCreated, w.Code)
		body := decodeResponse(t, w)
		assert.Equal(t, true, body["success"])
		data := body["data"].(map[string]any)
		assert.Equal(t, customerID.String(), data["customer_id"])
		assert.NotEmpty(t, data["reference"])
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.tokenFor(t, uuid.New())

		w := env.request(t, http.MethodPost, "/api/v1/invoices", token, gin.H{
			"amount": "-5",
		})

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeResponse(t, w)
		assert.Equal(t, "INVALID_INPUT", body["error"].(map[string]any)["code"])
	})

	t.Run("rejects creation beyond the quota", func(t *testing.T) {
		env := newTestEnv(t)
		customerID := uuid.New()
		token := env.tokenFor(t, customerID)
		env.seedInvoices(t, customerID, invoicing.MaxInvoicesPerCustomer)

		w := env.request(t, http.MethodPost, "/api/v1/invoices", token, gin.H{
			"amount": "10",
		})

		require.Equal(t, http.StatusConflict, w.Code)
		body := decodeResponse(t, w)
		assert.Equal(t, "QUOTA_EXCEEDED", body["error"].(map[string]any)["code"])
	})

	t.Run("requires authentication", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.request(t, http.MethodPost, "/api/v1/invoices", "", gin.H{"amount": "10"})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestInvoiceHandler_List(t *testing.T) {
	t.Run("unpaged listing has no meta", func(t *testing.T) {
		env := newTestEnv(t)
		customerID := uuid.New()
		token := env.tokenFor(t, customerID)
		env.seedInvoices(t, customerID, 3)

		w := env.request(t, http.MethodGet, "/api/v1/invoices", token, nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResponse(t, w)
		assert.Len(t, body["data"], 3)
		assert.Nil(t, body["meta"])
	})

	t.Run("paged listing carries meta", func(t *testing.T) {
		env := newTestEnv(t)
		customerID := uuid.New()
		token := env.tokenFor(t, customerID)
		env.seedInvoices(t, customerID, 15)

		w := env.request(t, http.MethodGet, "/api/v1/invoices?page=2&limit=10", token, nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResponse(t, w)
		assert.Len(t, body["data"], 5)
		meta := body["meta"].(map[string]any)
		assert.Equal(t, float64(15), meta["total"])
		assert.Equal(t, float64(2), meta["page"])
		assert.Equal(t, float64(10), meta["limit"])
		assert.Equal(t, float64(2), meta["totalPages"])
	})

	t.Run("filters by amount", func(t *testing.T) {
		env := newTestEnv(t)
		customerID := uuid.New()
		token := env.tokenFor(t, customerID)
		env.seedInvoices(t, customerID, 5) // amounts 10..14

		w := env.request(t, http.MethodGet, "/api/v1/invoices?minAmount=12&maxAmount=13", token, nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResponse(t, w)
		assert.Len(t, body["data"], 2)
	})

	t.Run("does not leak other customers' invoices", func(t *testing.T) {
		env := newTestEnv(t)
		mine := uuid.New()
		theirs := uuid.New()
		env.seedInvoices(t, theirs, 4)
		token := env.tokenFor(t, mine)

		w := env.request(t, http.MethodGet, "/api/v1/invoices", token, nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResponse(t, w)
		assert.Empty(t, body["data"])
	})

	t.Run("rejects a malformed query parameter", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.tokenFor(t, uuid.New())

		w := env.request(t, http.MethodGet, "/api/v1/invoices?minAmount=abc", token, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects page zero", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.tokenFor(t, uuid.New())

		w := env.request(t, http.MethodGet, "/api/v1/invoices?page=0", token, nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeResponse(t, w)
		assert.Equal(t, "INVALID_INPUT", body["error"].(map[string]any)["code"])
	})
}

func TestInvoiceHandler_GetByID(t *testing.T) {
	t.Run("returns an owned invoice", func(t *testing.T) {
		env := newTestEnv(t)
		customerID := uuid.New()
		token := env.tokenFor(t, customerID)
		ids := env.seedInvoices(t, customerID, 1)

		w := env.request(t, http.MethodGet, "/api/v1/invoices/"+ids[0].String(), token, nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeResponse(t, w)
		data := body["data"].(map[string]any)
		assert.Equal(t, ids[0].String(), data["id"])
	})

	t.Run("another customer's invoice is not found", func(t *testing.T) {
		env := newTestEnv(t)
		owner := uuid.New()
		ids := env.seedInvoices(t, owner, 1)
		token := env.tokenFor(t, uuid.New())

		w := env.request(t, http.MethodGet, "/api/v1/invoices/"+ids[0].String(), token, nil)

		require.Equal(t, http.StatusNotFound, w.Code)
		body := decodeResponse(t, w)
		assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		env := newTestEnv(t)
		token := env.tokenFor(t, uuid.New())

		w := env.request(t, http.MethodGet, "/api/v1/invoices/not-a-uuid", token, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInvoiceHandler_Delete(t *testing.T) {
	t.Run("deletes an owned invoice", func(t *testing.T) {
		env := newTestEnv(t)
		customerID := uuid.New()
		token := env.tokenFor(t, customerID)
		ids := env.seedInvoices(t, customerID, 1)

		w := env.request(t, http.MethodDelete, "/api/v1/invoices/"+ids[0].String(), token, nil)

		assert.Equal(t, http.StatusNoContent, w.Code)

		w = env.request(t, http.MethodGet, "/api/v1/invoices/"+ids[0].String(), token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("another customer's invoice cannot be deleted", func(t *testing.T) {
		env := newTestEnv(t)
		owner := uuid.New()
		ids := env.seedInvoices(t, owner, 1)
		token := env.tokenFor(t, uuid.New())

		w := env.request(t, http.MethodDelete, "/api/v1/invoices/"+ids[0].String(), token, nil)

		assert.Equal(t, http.StatusNotFound, w.Code)

		// Still present for its owner
		ownerToken := env.tokenFor(t, owner)
		w = env.request(t, http.MethodGet, "/api/v1/invoices/"+ids[0].String(), ownerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
