package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bond-lifecycle-demo/internal/domain"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testClient(baseURL string) *Client {
	return New(Options{BaseURL: baseURL, Timeout: time.Second, UserAgent: "test"}, noopLogger())
}

func validParams() CreateBondParams {
	return CreateBondParams{
		Principal:       decimal.NewFromInt(1_000_000),
		Currency:        "USD",
		CouponRate:      decimal.RequireFromString("0.05"),
		MaturityYears:   5,
		ConversionPrice: decimal.NewFromInt(100),
		ConversionRatio: 10,
	}
}

func TestCreateThenGetBondExactDecimals(t *testing.T) {
	var created createBondRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/bonds":
			if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
				t.Fatalf("decode create request: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "bond-1"})
		case r.Method == http.MethodGet && r.URL.Path == "/bonds/bond-1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"bond": map[string]any{
					"id":               "bond-1",
					"principal":        map[string]string{"amount": "1000000", "currency": "USD"},
					"coupon_rate":      map[string]string{"value": "0.05"},
					"conversion_price": map[string]string{"amount": "100", "currency": "USD"},
					"conversion_ratio": "10",
					"state":            "active",
				},
				"accrued_interest": map[string]string{"amount": "138.888", "currency": "USD"},
				"present_value":    map[string]string{"amount": "1044518.22", "currency": "USD"},
			})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	params := validParams()

	id, err := c.CreateBond(context.Background(), params)
	if err != nil {
		t.Fatalf("create bond: %v", err)
	}
	if id != "bond-1" {
		t.Fatalf("expected id bond-1, got %s", id)
	}
	if created.Currency != "USD" || created.MaturityYears != 5 || created.ConversionRatio != 10 {
		t.Fatalf("create request body mismatch: %+v", created)
	}

	detail, err := c.GetBond(context.Background(), id)
	if err != nil {
		t.Fatalf("get bond: %v", err)
	}

	bond := detail.Bond
	if !bond.Principal.Amount.Equal(params.Principal) {
		t.Fatalf("principal drifted: %s", bond.Principal.Amount)
	}
	if !bond.CouponRate.Value.Equal(params.CouponRate) {
		t.Fatalf("coupon rate drifted: %s", bond.CouponRate.Value)
	}
	if !bond.ConversionPrice.Amount.Equal(params.ConversionPrice) {
		t.Fatalf("conversion price drifted: %s", bond.ConversionPrice.Amount)
	}
	if !bond.ConversionRatio.Equal(decimal.NewFromInt(params.ConversionRatio)) {
		t.Fatalf("conversion ratio drifted: %s", bond.ConversionRatio)
	}
	if bond.Principal.Currency != "USD" {
		t.Fatalf("currency dropped: %q", bond.Principal.Currency)
	}
}

func TestCreateBondRejectsInvalidParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for invalid params")
	}))
	defer srv.Close()

	c := testClient(srv.URL)

	cases := []func(*CreateBondParams){
		func(p *CreateBondParams) { p.Principal = decimal.Zero },
		func(p *CreateBondParams) { p.Currency = "" },
		func(p *CreateBondParams) { p.CouponRate = decimal.NewFromInt(-1) },
		func(p *CreateBondParams) { p.MaturityYears = 0 },
		func(p *CreateBondParams) { p.ConversionPrice = decimal.Zero },
		func(p *CreateBondParams) { p.ConversionRatio = 0 },
	}
	for i, mutate := range cases {
		params := validParams()
		mutate(&params)
		if _, err := c.CreateBond(context.Background(), params); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"invalid state", http.StatusBadRequest, domain.ErrInvalidState},
		{"conflict", http.StatusConflict, domain.ErrInvalidState},
		{"server error", http.StatusInternalServerError, domain.ErrService},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "engine said no"})
			}))
			defer srv.Close()

			c := testClient(srv.URL)
			_, err := c.PayCoupon(context.Background(), "bond-1")
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
			}
		})
	}
}

func TestTimeoutSurfacesAsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Timeout: 20 * time.Millisecond}, noopLogger())
	_, err := c.GetBond(context.Background(), "bond-1")
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestMalformedResponseIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.GetBond(context.Background(), "bond-1")
	if !errors.Is(err, domain.ErrService) {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestListEventsEmptyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]any{})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	events, err := c.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("empty log should not error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestConvertSendsObservedPrice(t *testing.T) {
	var body convertRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bonds/bond-1/convert" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode convert request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"bond": map[string]any{"id": "bond-1", "state": "converted"},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	observed := domain.Money{Amount: decimal.RequireFromString("151.25"), Currency: "USD"}

	detail, err := c.Convert(context.Background(), "bond-1", observed)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if body.StockPrice != 151.25 || body.Currency != "USD" {
		t.Fatalf("convert request body mismatch: %+v", body)
	}
	if detail.Bond.State != domain.StateConverted {
		t.Fatalf("expected converted state, got %s", detail.Bond.State)
	}
}
