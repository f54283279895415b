package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"tovarbot/internal/models"
)

// ChannelRepository handles required channels/bots and recorded join requests.
type ChannelRepository struct {
	db *gorm.DB
}

func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// FindRequiredChannels returns all mandatory channels.
func (r *ChannelRepository) FindRequiredChannels() ([]models.RequiredChannel, error) {
	var channels []models.RequiredChannel
	err := r.db.Order("id").Find(&channels).Error
	return channels, err
}

// CreateRequiredChannel adds a mandatory channel.
func (r *ChannelRepository) CreateRequiredChannel(ch *models.RequiredChannel) error {
	return r.db.Create(ch).Error
}

// DeleteRequiredChannel removes a mandatory channel.
func (r *ChannelRepository) DeleteRequiredChannel(channelID string) error {
	return r.db.Where("channel_id = ?", channelID).Delete(&models.RequiredChannel{}).Error
}

// FindRequiredBots returns all mandatory sibling bots.
func (r *ChannelRepository) FindRequiredBots() ([]models.RequiredBot, error) {
	var bots []models.RequiredBot
	err := r.db.Order("id").Find(&bots).Error
	return bots, err
}

// CreateRequiredBot adds a mandatory bot.
func (r *ChannelRepository) CreateRequiredBot(bot *models.RequiredBot) error {
	return r.db.Create(bot).Error
}

// DeleteRequiredBot removes a mandatory bot.
func (r *ChannelRepository) DeleteRequiredBot(id int64) error {
	return r.db.Where("id = ?", id).Delete(&models.RequiredBot{}).Error
}

// SaveJoinRequest records a pending join request, refreshing the timestamp
// if one already exists for the pair.
func (r *ChannelRepository) SaveJoinRequest(userID int64, channelID string) error {
	var existing models.JoinRequest
	err := r.db.Where("user_id = ? AND channel_id = ?", userID, channelID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&models.JoinRequest{UserID: userID, ChannelID: channelID}).Error
	}
	if err != nil {
		return err
	}
	return r.db.Model(&existing).Update("requested_at", time.Now()).Error
}

// HasRecentJoinRequest reports whether the user filed a join request for the
// channel within the trust window.
func (r *ChannelRepository) HasRecentJoinRequest(userID int64, channelID string, window time.Duration) (bool, error) {
	var count int64
	err := r.db.Model(&models.JoinRequest{}).
		Where("user_id = ? AND channel_id = ? AND requested_at > ?", userID, channelID, time.Now().Add(-window)).
		Count(&count).Error
	return count > 0, err
}

// DeleteStaleJoinRequests discards requests outside the trust window.
func (r *ChannelRepository) DeleteStaleJoinRequests(window time.Duration) (int64, error) {
	res := r.db.Where("requested_at < ?", time.Now().Add(-window)).Delete(&models.JoinRequest{})
	return res.RowsAffected, res.Error
}
