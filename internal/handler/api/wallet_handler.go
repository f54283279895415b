package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tovarbot/internal/models"
	"tovarbot/internal/repository"
)

// WalletHandler manages payout wallets and invoice payment methods.
type WalletHandler struct {
	wallets *repository.WalletRepository
	logger  *zap.Logger
}

func NewWalletHandler(wallets *repository.WalletRepository, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, logger: logger}
}

func (h *WalletHandler) List(c echo.Context) error {
	wallets, err := h.wallets.FindAll()
	if err != nil {
		h.logger.Error("list wallets failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to list wallets")
	}
	return successResponse(c, wallets)
}

type walletRequest struct {
	Name       string `json:"name"`
	CardNumber string `json:"card_number"`
	OwnerName  string `json:"owner_name"`
}

func (h *WalletHandler) Create(c echo.Context) error {
	var req walletRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.Name == "" || req.CardNumber == "" {
		return errorResponse(c, http.StatusBadRequest, "name and card_number are required")
	}

	w := &models.Wallet{
		Name:       req.Name,
		CardNumber: req.CardNumber,
		OwnerName:  req.OwnerName,
	}
	if err := h.wallets.Create(w); err != nil {
		h.logger.Error("create wallet failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to create wallet")
	}
	return successResponse(c, w)
}

func (h *WalletHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid wallet id")
	}
	if err := h.wallets.Delete(id); err != nil {
		h.logger.Error("delete wallet failed", zap.Int64("id", id), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to delete wallet")
	}
	return successResponse(c, nil)
}

func (h *WalletHandler) ListMethods(c echo.Context) error {
	methods, err := h.wallets.FindMethods()
	if err != nil {
		h.logger.Error("list payment methods failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to list payment methods")
	}
	return successResponse(c, methods)
}
