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

	"bond-lifecycle-demo/internal/domain"
)

// Notification describes an observed price that makes conversion economical.
type Notification struct {
	BondID          string
	Observed        domain.PriceQuote
	ConversionPrice domain.Money
	ConversionRatio decimal.Decimal
	ConversionValue domain.Money
}

// Notifier delivers conversion-trigger notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes notifications through the Telegram Bot API.
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

// Notify posts the rendered message via the sendMessage API.
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
		return fmt.Errorf("unexpected telegram status: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Str("bond_id", note.BondID).
		Str("observed", note.Observed.Price.String()).
		Msg("conversion trigger notification sent")
	return nil
}

func renderMessage(note Notification) string {
	builder := strings.Builder{}
	builder.WriteString("[Convertible Bond Alert]\n")
	builder.WriteString("Conversion trigger crossed\n")
	builder.WriteString(fmt.Sprintf("Bond: %s\n", note.BondID))
	builder.WriteString(fmt.Sprintf("Observed: %s (%s, %s)\n", note.Observed.Price, note.Observed.Source, note.Observed.Chain))
	builder.WriteString(fmt.Sprintf("Observed at: %s UTC\n", note.Observed.Timestamp.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf("Conversion price: %s\n", note.ConversionPrice))
	builder.WriteString(fmt.Sprintf("Conversion ratio: %s\n", note.ConversionRatio.String()))
	if !note.ConversionValue.IsZero() {
		builder.WriteString(fmt.Sprintf("Conversion value: %s\n", note.ConversionValue))
	}
	return builder.String()
}

var _ Notifier = (*TelegramNotifier)(nil)
