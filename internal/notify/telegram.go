package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramProvider broadcasts messages to a Telegram channel via the Bot API.
type TelegramProvider struct {
	token      string
	chatID     string
	baseURL    string
	httpClient *http.Client
}

// TelegramOption configures a TelegramProvider.
type TelegramOption func(*TelegramProvider)

// WithTelegramBaseURL overrides the Bot API root. Used by tests.
func WithTelegramBaseURL(u string) TelegramOption {
	return func(p *TelegramProvider) { p.baseURL = strings.TrimRight(u, "/") }
}

// NewTelegramProvider creates a provider that sends to the given chat or
// channel identifier (e.g. "@vaccine_alerts" or a numeric chat ID).
func NewTelegramProvider(token, chatID string, opts ...TelegramOption) *TelegramProvider {
	p := &TelegramProvider{
		token:      token,
		chatID:     chatID,
		baseURL:    telegramAPIBase,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the provider identifier.
func (p *TelegramProvider) Name() string { return "telegram" }

// telegramResponse is the envelope every Bot API method returns.
type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers msg.Body as a plain-text message to the configured chat.
func (p *TelegramProvider) Send(ctx context.Context, msg Message) error {
	payload := map[string]any{
		"chat_id": p.chatID,
		"text":    msg.Body,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	u := fmt.Sprintf("%s/bot%s/sendMessage", p.baseURL, p.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling Telegram sendMessage: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var tgResp telegramResponse
	if err := json.Unmarshal(respBody, &tgResp); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if !tgResp.OK {
		return fmt.Errorf("telegram API error: %s", tgResp.Description)
	}
	return nil
}
