package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tovarbot/internal/repository"
)

// SaleHandler exposes the sales ledger read-only.
type SaleHandler struct {
	sales  *repository.SaleRepository
	logger *zap.Logger
}

func NewSaleHandler(sales *repository.SaleRepository, logger *zap.Logger) *SaleHandler {
	return &SaleHandler{sales: sales, logger: logger}
}

func (h *SaleHandler) List(c echo.Context) error {
	limit, page := pageParams(c)
	sales, total, err := h.sales.FindAll(limit, page)
	if err != nil {
		h.logger.Error("list sales failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to list sales")
	}
	return paginatedResponse(c, "sales", sales, total, page, limit)
}

func (h *SaleHandler) Get(c echo.Context) error {
	orderID := c.Param("order_id")
	if orderID == "" {
		return errorResponse(c, http.StatusBadRequest, "order_id is required")
	}
	sale, err := h.sales.FindByOrderID(orderID)
	if err != nil {
		return errorResponse(c, http.StatusNotFound, "sale not found")
	}
	return successResponse(c, sale)
}

// Summary reports sale count and paid total for the last N days (default 1).
func (h *SaleHandler) Summary(c echo.Context) error {
	days := 1
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return errorResponse(c, http.StatusBadRequest, "days must be a positive number")
		}
		days = parsed
	}

	count, total, err := h.sales.SummarySince(time.Now().AddDate(0, 0, -days))
	if err != nil {
		h.logger.Error("sales summary failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to compute summary")
	}
	return successResponse(c, map[string]interface{}{
		"days":  days,
		"count": count,
		"total": total,
	})
}
