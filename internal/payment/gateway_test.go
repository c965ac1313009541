package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateOrderSuccess(t *testing.T) {
	t.Parallel()

	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-client-id") != "app" || r.Header.Get("x-client-secret") != "sec" {
			t.Errorf("missing auth headers")
		}
		if v := r.Header.Get("x-api-version"); v != "2023-08-01" {
			t.Errorf("x-api-version = %q", v)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"order_id":           "order_abc",
			"payment_session_id": "session_xyz",
		})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "app", "sec")
	sess, err := g.CreateOrder(context.Background(), 49900, Customer{ID: "s@example.com", Name: "Asha", Email: "s@example.com"}, "https://app.example.com/test/off1?token=1_ab")
	if err != nil {
		t.Fatalf("CreateOrder() error: %v", err)
	}
	if sess.OrderID != "order_abc" || sess.PaymentSessionID != "session_xyz" {
		t.Errorf("session = %+v", sess)
	}

	if amt := got["order_amount"].(float64); amt != 499 {
		t.Errorf("order_amount = %v, want 499 rupees", amt)
	}
	if cur := got["order_currency"].(string); cur != "INR" {
		t.Errorf("order_currency = %q", cur)
	}
	meta := got["order_meta"].(map[string]interface{})
	if ru := meta["return_url"].(string); ru != "https://app.example.com/test/off1?token=1_ab" {
		t.Errorf("return_url = %q", ru)
	}
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "authentication failed"})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "app", "bad")
	_, err := g.CreateOrder(context.Background(), 10000, Customer{}, "https://x/test/1")
	var ge *GatewayError
	if !errors.As(err, &ge) {
		t.Fatalf("error = %v, want *GatewayError", err)
	}
	if ge.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 passed through", ge.Status)
	}
	if ge.Message != "authentication failed" {
		t.Errorf("message = %q", ge.Message)
	}
}

func TestCreateOrderInvalidAmount(t *testing.T) {
	t.Parallel()

	g := NewGateway("http://unused", "app", "sec")
	for _, amt := range []int64{0, -100} {
		if _, err := g.CreateOrder(context.Background(), amt, Customer{}, "https://x"); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("CreateOrder(amount=%d) error = %v, want ErrInvalidAmount", amt, err)
		}
	}
}

func TestCreateOrderGuestFallbacks(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Customer map[string]string `json:"customer_details"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Customer["customer_id"] == "" {
			t.Errorf("customer_id empty, want guest fallback")
		}
		if body.Customer["customer_name"] != "Student" {
			t.Errorf("customer_name = %q, want Student fallback", body.Customer["customer_name"])
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"order_id": "o", "payment_session_id": "p"})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "app", "sec")
	if _, err := g.CreateOrder(context.Background(), 100, Customer{}, "https://x"); err != nil {
		t.Fatalf("CreateOrder() error: %v", err)
	}
}

func TestCreateOrderMissingIdentifiers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"order_id": "o"})
	}))
	defer srv.Close()

	g := NewGateway(srv.URL, "app", "sec")
	_, err := g.CreateOrder(context.Background(), 100, Customer{}, "https://x")
	var ge *GatewayError
	if !errors.As(err, &ge) || ge.Status != http.StatusBadGateway {
		t.Fatalf("error = %v, want bad-gateway GatewayError", err)
	}
}
