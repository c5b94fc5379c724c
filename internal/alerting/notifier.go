package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, alerts []Alert) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    RenderMessage(alerts),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().Int("alerts", len(alerts)).Msg("告警已发送 (Telegram)")
	return nil
}

// RenderMessage 渲染告警文本，供 Telegram 与终端共用。
func RenderMessage(alerts []Alert) string {
	builder := strings.Builder{}
	builder.WriteString("[DLMM Pool Alert]\n")
	for _, a := range alerts {
		label := a.PairLabel
		if label == "" {
			label = a.PairAddress
		}
		builder.WriteString(fmt.Sprintf("%s\n", label))
		builder.WriteString(fmt.Sprintf("  TVL: %s  Fee24h: %s  Vol24h: %s\n",
			a.TVLDisplay, a.Fee24hDisplay, a.Volume24hDisplay))
		if a.FeeOverTVL != nil {
			builder.WriteString(fmt.Sprintf("  Fee/TVL: %s%%\n", a.FeeOverTVL.Mul(decHundred).StringFixed(2)))
		}
		if a.EstFeeShare24hUSD != nil {
			builder.WriteString(fmt.Sprintf("  Est fee share (%s in): %s/24h\n",
				"$"+a.InvestUSD.StringFixed(0), a.EstFeeShareDisplay))
		}
		builder.WriteString(fmt.Sprintf("  Triggers: %s\n", strings.Join(a.TriggerNames, ",")))
		builder.WriteString(fmt.Sprintf("  https://app.meteora.ag/dlmm/%s\n", a.PairAddress))
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
