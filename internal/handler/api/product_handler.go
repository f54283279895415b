package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tovarbot/internal/models"
	"tovarbot/internal/repository"
)

// ProductHandler manages the catalog over the admin API.
type ProductHandler struct {
	products *repository.ProductRepository
	logger   *zap.Logger
}

func NewProductHandler(products *repository.ProductRepository, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

func (h *ProductHandler) List(c echo.Context) error {
	limit, page := pageParams(c)
	products, total, err := h.products.FindAll(limit, page)
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to list products")
	}
	return paginatedResponse(c, "products", products, total, page, limit)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid product id")
	}
	p, err := h.products.FindByID(id)
	if err != nil {
		return errorResponse(c, http.StatusNotFound, "product not found")
	}
	return successResponse(c, p)
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	MediaType   string `json:"media_type"`
	MediaFileID string `json:"media_file_id"`
	Active      *bool  `json:"is_active"`
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.Price <= 0 {
		return errorResponse(c, http.StatusBadRequest, "name and positive price are required")
	}

	p := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		MediaType:   req.MediaType,
		MediaFileID: req.MediaFileID,
		Active:      true,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if err := h.products.Create(p); err != nil {
		h.logger.Error("create product failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to create product")
	}
	return successResponse(c, p)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid product id")
	}
	if _, err := h.products.FindByID(id); err != nil {
		return errorResponse(c, http.StatusNotFound, "product not found")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Price > 0 {
		updates["price"] = req.Price
	}
	if req.MediaType != "" {
		updates["media_type"] = req.MediaType
		updates["media_file_id"] = req.MediaFileID
	}
	if req.Active != nil {
		updates["is_active"] = *req.Active
	}
	if len(updates) == 0 {
		return errorResponse(c, http.StatusBadRequest, "nothing to update")
	}

	if err := h.products.Update(id, updates); err != nil {
		h.logger.Error("update product failed", zap.Int64("id", id), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to update product")
	}
	p, _ := h.products.FindByID(id)
	return successResponse(c, p)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid product id")
	}
	if err := h.products.Delete(id); err != nil {
		h.logger.Error("delete product failed", zap.Int64("id", id), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to delete product")
	}
	return successResponse(c, nil)
}
