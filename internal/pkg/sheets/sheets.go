package sheets

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client appends rows to a Google Sheets worksheet. The mirror is
// best-effort; callers treat any error as a soft failure.
type Client struct {
	spreadsheetID string
	worksheet     string
	accessToken   string
	http          *resty.Client
}

func NewClient(spreadsheetID, worksheet, accessToken string) *Client {
	return &Client{
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		accessToken:   accessToken,
		http: resty.New().
			SetBaseURL("https://sheets.googleapis.com/v4/spreadsheets").
			SetTimeout(5 * time.Second),
	}
}

// Enabled reports whether the mirror is configured at all.
func (c *Client) Enabled() bool {
	return c != nil && c.spreadsheetID != "" && c.accessToken != ""
}

// Append adds one row at the bottom of the worksheet.
func (c *Client) Append(row []interface{}) error {
	if !c.Enabled() {
		return fmt.Errorf("sheets mirror not configured")
	}

	resp, err := c.http.R().
		SetAuthToken(c.accessToken).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("valueInputOption", "USER_ENTERED").
		SetBody(map[string]interface{}{
			"values": [][]interface{}{row},
		}).
		Post(fmt.Sprintf("/%s/values/%s:append", c.spreadsheetID, c.worksheet))
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	if resp.IsError() {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if jerr := json.Unmarshal(resp.Body(), &apiErr); jerr == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("sheets append: %s", apiErr.Error.Message)
		}
		return fmt.Errorf("sheets append: status %d", resp.StatusCode())
	}
	return nil
}
