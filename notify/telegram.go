package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTelegramAPI is the public Bot API endpoint.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier posts plain-text messages through the Bot API. Link
// previews are disabled so long deal lists stay readable.
type TelegramNotifier struct {
	http   *resty.Client
	apiURL string
	token  string
	chatID string
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// NewTelegramNotifier creates a notifier for one bot and one chat.
func NewTelegramNotifier(apiURL, token, chatID string, timeout time.Duration) *TelegramNotifier {
	if apiURL == "" {
		apiURL = DefaultTelegramAPI
	}
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return &TelegramNotifier{
		http:   client,
		apiURL: strings.TrimRight(apiURL, "/"),
		token:  token,
		chatID: chatID,
	}
}

// Send delivers text once. Any non-2xx answer is returned as an error
// carrying the status and response body.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	res, err := t.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendMessageRequest{
			ChatID:                t.chatID,
			Text:                  text,
			DisableWebPagePreview: true,
		}).
		Post(t.apiURL + "/bot" + t.token + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("telegram: status %d: %s", res.StatusCode(), strings.TrimSpace(res.String()))
	}
	return nil
}
