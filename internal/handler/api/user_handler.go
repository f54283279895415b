package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tovarbot/internal/repository"
)

// UserHandler covers the few user operations admins need from outside the bot.
type UserHandler struct {
	users  *repository.UserRepository
	logger *zap.Logger
}

func NewUserHandler(users *repository.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid user id")
	}
	user, err := h.users.FindByID(id)
	if err != nil {
		return errorResponse(c, http.StatusNotFound, "user not found")
	}
	return successResponse(c, user)
}

func (h *UserHandler) setBlocked(c echo.Context, blocked bool) error {
	id, err := pathID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid user id")
	}
	if _, err := h.users.FindByID(id); err != nil {
		return errorResponse(c, http.StatusNotFound, "user not found")
	}
	if err := h.users.SetBlocked(id, blocked); err != nil {
		h.logger.Error("set blocked failed", zap.Int64("user_id", id), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to update user")
	}
	return successResponse(c, map[string]interface{}{"id": id, "is_blocked": blocked})
}

func (h *UserHandler) Block(c echo.Context) error   { return h.setBlocked(c, true) }
func (h *UserHandler) Unblock(c echo.Context) error { return h.setBlocked(c, false) }
