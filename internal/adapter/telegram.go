package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopmindai/voicematch/internal/matcher"
	"github.com/shopmindai/voicematch/internal/matchstate"
)

// TelegramClient implements BotClient against the real Telegram Bot API
// over a plain net/http.Client, per spec.md §6.2. Rendering text/keyboard
// templates per matcher.MessageKind is intentionally left to renderParams/the
// caller — this client only shuttles already-built params to the
// platform's sendMessage/editMessageText/deleteMessage/answerCallbackQuery
// methods.
type TelegramClient struct {
	token  string
	client *http.Client
}

// NewTelegramClient builds a client authenticated with token, with a
// bounded per-call timeout matching the teacher's io-bound HTTP clients.
func NewTelegramClient(token string) *TelegramClient {
	return &TelegramClient{
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TelegramClient) endpoint(method string) string {
	return fmt.Sprintf("https://api.telegram.org/bot%s/%s", t.token, method)
}

func (t *TelegramClient) call(ctx context.Context, method string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint(method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: build request %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram: %s returned status %d", method, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Send implements BotClient.
func (t *TelegramClient) Send(ctx context.Context, uid matchstate.Uid, kind matcher.MessageKind, params map[string]any) (string, error) {
	payload := map[string]any{"chat_id": int64(uid)}
	for k, v := range params {
		payload[k] = v
	}

	var result struct {
		OK     bool `json:"ok"`
		Result struct {
			MessageID int `json:"message_id"`
		} `json:"result"`
	}
	if err := t.call(ctx, "sendMessage", payload, &result); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", result.Result.MessageID), nil
}

// EditMessage implements BotClient.
func (t *TelegramClient) EditMessage(ctx context.Context, uid matchstate.Uid, messageID string, kind matcher.MessageKind, params map[string]any) error {
	payload := map[string]any{"chat_id": int64(uid), "message_id": messageID}
	for k, v := range params {
		payload[k] = v
	}
	return t.call(ctx, "editMessageText", payload, nil)
}

// DeleteMessage implements BotClient.
func (t *TelegramClient) DeleteMessage(ctx context.Context, uid matchstate.Uid, messageID string) error {
	return t.call(ctx, "deleteMessage", map[string]any{"chat_id": int64(uid), "message_id": messageID}, nil)
}

// AckCallbackQuery implements BotClient.
func (t *TelegramClient) AckCallbackQuery(ctx context.Context, callbackID string) error {
	return t.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": callbackID}, nil)
}
