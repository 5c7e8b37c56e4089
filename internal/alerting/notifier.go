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
	"github.com/shopspring/decimal"

	"carrier-rate-optimizer/internal/model"
)

// Notification carries the context of one savings alert.
type Notification struct {
	RunAt         time.Time
	TopPerformer  model.AccountID
	TotalSavings  decimal.Decimal
	CurrentCost   decimal.Decimal
	SavingsPct    decimal.Decimal
	ThresholdPct  decimal.Decimal
	ShipmentCount int
	Channels      []string
	AdditionalMsg string
}

// Notifier delivers savings alerts.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
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

// Notify sends the rendered alert text via the sendMessage API.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
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
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Time("run_at", note.RunAt).
		Str("top_performer", note.TopPerformer.String()).
		Str("channels", strings.Join(note.Channels, ",")).
		Msg("savings alert sent (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Carrier Savings Alert]\n")
	builder.WriteString(fmt.Sprintf("Run: %s UTC\n", note.RunAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf("Top performer: %s\n", note.TopPerformer))
	builder.WriteString(fmt.Sprintf("Projected savings: $%s (%s%% of $%s)\n",
		note.TotalSavings.StringFixed(2), note.SavingsPct.StringFixed(1), note.CurrentCost.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Threshold: %s%%\n", note.ThresholdPct.StringFixed(1)))
	builder.WriteString(fmt.Sprintf("Shipments: %d\n", note.ShipmentCount))
	if len(note.Channels) > 0 {
		builder.WriteString(fmt.Sprintf("Channels: %s\n", strings.Join(note.Channels, ",")))
	}
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
