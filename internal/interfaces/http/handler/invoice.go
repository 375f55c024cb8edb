package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinvoicing "github.com/salesledger/backend/internal/application/invoicing"
	"github.com/salesledger/backend/internal/interfaces/http/dto"
	"github.com/salesledger/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceHandler handles invoice ledger HTTP requests
type InvoiceHandler struct {
	BaseHandler
	service *appinvoicing.InvoiceService
	logger  *zap.Logger
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service *appinvoicing.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	invoices := rg.Group("/invoices")
	{
		invoices.POST("", h.Create)
		invoices.GET("", h.List)
		invoices.GET("/:id", h.GetByID)
		invoices.DELETE("/:id", h.Delete)
	}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req appinvoicing.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	response, err := h.service.Create(c.Request.Context(), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, response)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter, err := parseListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.List(c.Request.Context(), customerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Meta != nil {
		h.SuccessWithMeta(c, result.Invoices, dto.Meta{
			Total:      result.Meta.Total,
			Page:       result.Meta.Page,
			Limit:      result.Meta.Limit,
			TotalPages: result.Meta.TotalPages,
		})
		return
	}
	h.Success(c, result.Invoices)
}

// GetByID handles GET /invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	response, err := h.service.GetByID(c.Request.Context(), customerID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, response)
}

// Delete handles DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	customerID, err := getCustomerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), customerID, invoiceID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// parseListFilter parses the optional query parameters of a listing
// request. Absent parameters stay nil; malformed ones are a caller error.
func parseListFilter(c *gin.Context) (appinvoicing.ListInvoicesFilter, error) {
	var filter appinvoicing.ListInvoicesFilter

	if raw, ok := c.GetQuery("startDate"); ok {
		t, err := parseTimeParam(raw)
		if err != nil {
			return filter, &queryParamError{"startDate", raw}
		}
		filter.StartDate = &t
	}
	if raw, ok := c.GetQuery("endDate"); ok {
		t, err := parseTimeParam(raw)
		if err != nil {
			return filter, &queryParamError{"endDate", raw}
		}
		filter.EndDate = &t
	}
	if raw, ok := c.GetQuery("minAmount"); ok {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, &queryParamError{"minAmount", raw}
		}
		filter.MinAmount = &d
	}
	if raw, ok := c.GetQuery("maxAmount"); ok {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, &queryParamError{"maxAmount", raw}
		}
		filter.MaxAmount = &d
	}
	if raw, ok := c.GetQuery("page"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, &queryParamError{"page", raw}
		}
		filter.Page = &n
	}
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, &queryParamError{"limit", raw}
		}
		filter.Limit = &n
	}

	return filter, nil
}

// parseTimeParam accepts RFC 3339 timestamps and bare dates
func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

type queryParamError struct {
	param string
	value string
}

func (e *queryParamError) Error() string {
	return "Invalid value for query parameter " + e.param + ": " + e.value
}
