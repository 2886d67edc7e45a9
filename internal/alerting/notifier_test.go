package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bond-lifecycle-demo/internal/domain"
)

func sampleNotification() Notification {
	return Notification{
		BondID: "bond-1",
		Observed: domain.PriceQuote{
			Price:     domain.Money{Amount: decimal.RequireFromString("151.25"), Currency: "USD"},
			Source:    "chainlink",
			Chain:     "Ethereum Mainnet",
			Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
		ConversionPrice: domain.Money{Amount: decimal.NewFromInt(100), Currency: "USD"},
		ConversionRatio: decimal.NewFromInt(10),
		ConversionValue: domain.Money{Amount: decimal.RequireFromString("1512.5"), Currency: "USD"},
	}
}

func TestTelegramNotify(t *testing.T) {
	var gotPath string
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token123", "chat456", srv.URL, time.Second, zerolog.Nop())
	if err := n.Notify(context.Background(), sampleNotification()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if gotPath != "/bottoken123/sendMessage" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if payload["chat_id"] != "chat456" {
		t.Fatalf("chat id mismatch: %q", payload["chat_id"])
	}
	text := payload["text"]
	for _, want := range []string{"bond-1", "151.25 USD", "chainlink", "Conversion price: 100 USD", "Conversion ratio: 10", "Conversion value: 1512.5 USD"} {
		if !strings.Contains(text, want) {
			t.Fatalf("message missing %q:\n%s", want, text)
		}
	}
}

func TestTelegramNotifyNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": false})
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := n.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("expected error for ok=false response")
	}
}

func TestTelegramNotifyStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "chat", srv.URL, time.Second, zerolog.Nop())
	if err := n.Notify(context.Background(), sampleNotification()); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestRenderMessageOmitsZeroConversionValue(t *testing.T) {
	note := sampleNotification()
	note.ConversionValue = domain.Money{}
	msg := renderMessage(note)
	if strings.Contains(msg, "Conversion value") {
		t.Fatalf("zero conversion value should be omitted:\n%s", msg)
	}
}
