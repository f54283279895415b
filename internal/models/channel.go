package models

import "time"

// RequiredChannel maps to the `required_channels` table: channels a user
// must join before the purchase flow opens.
type RequiredChannel struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ChannelID  string    `gorm:"column:channel_id;size:64;uniqueIndex" json:"channel_id"`
	Name       string    `gorm:"column:channel_name;size:256" json:"channel_name"`
	InviteLink string    `gorm:"column:invite_link;size:512" json:"invite_link"`
	AddedBy    int64     `gorm:"column:added_by" json:"added_by"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (RequiredChannel) TableName() string {
	return "required_channels"
}

// RequiredBot maps to the `required_bots` table: sibling bots a user must
// have started.
type RequiredBot struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Token     string    `gorm:"column:bot_token;size:256" json:"bot_token"`
	Username  string    `gorm:"column:bot_username;size:256" json:"bot_username"`
	Name      string    `gorm:"column:bot_name;size:256" json:"bot_name"`
	AddedBy   int64     `gorm:"column:added_by" json:"added_by"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (RequiredBot) TableName() string {
	return "required_bots"
}

// JoinRequest maps to the `join_requests` table. An outstanding join request
// counts as "trying" for approval-gated private channels.
type JoinRequest struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"column:user_id;index:idx_join_user_channel" json:"user_id"`
	ChannelID   string    `gorm:"column:channel_id;size:64;index:idx_join_user_channel" json:"channel_id"`
	RequestedAt time.Time `gorm:"column:requested_at;autoCreateTime" json:"requested_at"`
}

func (JoinRequest) TableName() string {
	return "join_requests"
}
