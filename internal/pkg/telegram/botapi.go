package telegram

import (
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// BotAPI provides a direct Telegram Bot API client for calls made outside
// the current update's context: cross-chat sends, caption edits on the
// reviewer's copy, membership probes for arbitrary bot tokens.
type BotAPI struct {
	token  string
	client *resty.Client
}

// NewBotAPI creates a new direct Telegram Bot API client.
func NewBotAPI(token string) *BotAPI {
	return &BotAPI{
		token:  token,
		client: resty.New().SetBaseURL("https://api.telegram.org/bot" + token),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Call makes a raw API call and returns the result payload.
func (b *BotAPI) Call(method string, params map[string]interface{}) (json.RawMessage, error) {
	resp, err := b.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(params).
		Post("/" + method)
	if err != nil {
		return nil, fmt.Errorf("telegram API call %s failed: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("telegram API call %s: bad response: %w", method, err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram API call %s: %s", method, parsed.Description)
	}
	return parsed.Result, nil
}

// SendMessage sends an HTML text message to any chat.
func (b *BotAPI) SendMessage(chatID int64, text string, replyMarkup interface{}) error {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		params["reply_markup"] = replyMarkup
	}
	_, err := b.Call("sendMessage", params)
	return err
}

// SendPhoto sends a photo by file_id or URL with an HTML caption.
func (b *BotAPI) SendPhoto(chatID int64, photo, caption string, replyMarkup interface{}) (int, error) {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"photo":      photo,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		params["reply_markup"] = replyMarkup
	}
	result, err := b.Call("sendPhoto", params)
	if err != nil {
		return 0, err
	}
	var msg struct {
		MessageID int `json:"message_id"`
	}
	if err := json.Unmarshal(result, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// EditMessageCaption replaces the caption on a previously sent media message.
func (b *BotAPI) EditMessageCaption(chatID int64, messageID int, caption string, replyMarkup interface{}) error {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"caption":    caption,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		params["reply_markup"] = replyMarkup
	}
	_, err := b.Call("editMessageCaption", params)
	return err
}

// EditMessageText replaces the text of a previously sent message.
func (b *BotAPI) EditMessageText(chatID int64, messageID int, text string, replyMarkup interface{}) error {
	params := map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if replyMarkup != nil {
		params["reply_markup"] = replyMarkup
	}
	_, err := b.Call("editMessageText", params)
	return err
}

// DeleteMessage deletes a message.
func (b *BotAPI) DeleteMessage(chatID int64, messageID int) error {
	_, err := b.Call("deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})
	return err
}

// GetChatMemberStatus returns the membership status string for a user in a
// chat: "creator", "administrator", "member", "restricted", "left", "kicked".
func (b *BotAPI) GetChatMemberStatus(chatID string, userID int64) (string, error) {
	result, err := b.Call("getChatMember", map[string]interface{}{
		"chat_id": chatID,
		"user_id": userID,
	})
	if err != nil {
		return "", err
	}
	var member struct {
		Status   string `json:"status"`
		IsMember bool   `json:"is_member"`
	}
	if err := json.Unmarshal(result, &member); err != nil {
		return "", err
	}
	// A restricted user may still be a member.
	if member.Status == "restricted" && member.IsMember {
		return "member", nil
	}
	return member.Status, nil
}

// HasStartedBot probes a sibling bot's token: sendChatAction succeeds only
// for users who have opened a chat with that bot.
func (b *BotAPI) HasStartedBot(botToken string, userID int64) (bool, error) {
	client := resty.New().SetBaseURL("https://api.telegram.org/bot" + botToken)
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"chat_id": userID,
			"action":  "typing",
		}).
		Post("/sendChatAction")
	if err != nil {
		return false, err
	}
	var parsed apiResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return false, err
	}
	return parsed.OK, nil
}
