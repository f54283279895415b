package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tovarbot/internal/models"
	"tovarbot/internal/repository"
)

// ChannelHandler manages the subscription requirements: channels the buyer
// must join and sibling bots they must start.
type ChannelHandler struct {
	channels *repository.ChannelRepository
	logger   *zap.Logger
}

func NewChannelHandler(channels *repository.ChannelRepository, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{channels: channels, logger: logger}
}

func (h *ChannelHandler) ListChannels(c echo.Context) error {
	channels, err := h.channels.FindRequiredChannels()
	if err != nil {
		h.logger.Error("list required channels failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to list channels")
	}
	return successResponse(c, channels)
}

type channelRequest struct {
	ChannelID  string `json:"channel_id"`
	Name       string `json:"name"`
	InviteLink string `json:"invite_link"`
	AddedBy    int64  `json:"added_by"`
}

func (h *ChannelHandler) CreateChannel(c echo.Context) error {
	var req channelRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.ChannelID == "" || req.InviteLink == "" {
		return errorResponse(c, http.StatusBadRequest, "channel_id and invite_link are required")
	}

	ch := &models.RequiredChannel{
		ChannelID:  req.ChannelID,
		Name:       req.Name,
		InviteLink: req.InviteLink,
		AddedBy:    req.AddedBy,
	}
	if err := h.channels.CreateRequiredChannel(ch); err != nil {
		h.logger.Error("create required channel failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to create channel")
	}
	return successResponse(c, ch)
}

func (h *ChannelHandler) DeleteChannel(c echo.Context) error {
	channelID := c.Param("channel_id")
	if channelID == "" {
		return errorResponse(c, http.StatusBadRequest, "channel_id is required")
	}
	if err := h.channels.DeleteRequiredChannel(channelID); err != nil {
		h.logger.Error("delete required channel failed", zap.String("channel_id", channelID), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to delete channel")
	}
	return successResponse(c, nil)
}

func (h *ChannelHandler) ListBots(c echo.Context) error {
	bots, err := h.channels.FindRequiredBots()
	if err != nil {
		h.logger.Error("list required bots failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to list bots")
	}
	return successResponse(c, bots)
}

type botRequest struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
	AddedBy  int64  `json:"added_by"`
}

func (h *ChannelHandler) CreateBot(c echo.Context) error {
	var req botRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.Token == "" || req.Username == "" {
		return errorResponse(c, http.StatusBadRequest, "token and username are required")
	}

	b := &models.RequiredBot{
		Token:    req.Token,
		Username: req.Username,
		Name:     req.Name,
		AddedBy:  req.AddedBy,
	}
	if err := h.channels.CreateRequiredBot(b); err != nil {
		h.logger.Error("create required bot failed", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to create bot")
	}
	return successResponse(c, b)
}

func (h *ChannelHandler) DeleteBot(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid bot id")
	}
	if err := h.channels.DeleteRequiredBot(id); err != nil {
		h.logger.Error("delete required bot failed", zap.Int64("id", id), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "failed to delete bot")
	}
	return successResponse(c, nil)
}
