package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiVersion = "2023-08-01"

var (
	// ErrInvalidAmount is returned for zero or negative order amounts.
	ErrInvalidAmount = errors.New("order amount must be positive")
	// ErrMissingOffering is returned when no offering id is supplied.
	ErrMissingOffering = errors.New("offering id is required")
)

// GatewayError carries an upstream gateway failure. The HTTP status is
// passed through to the caller rather than flattened to 500 so clients can
// distinguish declined/invalid orders from our own outages.
type GatewayError struct {
	Status  int
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error (%d): %s", e.Status, e.Message)
}

// Customer identifies the paying principal towards the gateway.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// OrderSession is the result of a successful gateway order creation. The
// session id feeds the gateway's hosted checkout on the client.
type OrderSession struct {
	OrderID          string
	PaymentSessionID string
}

// Gateway is a thin client for the Cashfree PG order API. Calls are
// authenticated with the app id/secret header pair; there is no official Go
// SDK, the REST surface is small enough to wrap directly.
type Gateway struct {
	baseURL string
	appID   string
	secret  string
	client  *http.Client
}

// NewGateway builds a Gateway for the given API base
// (e.g. https://sandbox.cashfree.com/pg).
func NewGateway(baseURL, appID, secret string) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		secret:  secret,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateOrder registers a payment order with the gateway and returns the
// checkout session handle. amountPaise is converted to rupees on the wire
// (the gateway expects a decimal amount). returnURL is where the gateway
// redirects the browser after checkout; the caller templates it with the
// offering id and a freshly minted bypass token. No persistence happens
// here: one gateway call, one result.
func (g *Gateway) CreateOrder(ctx context.Context, amountPaise int64, cust Customer, returnURL string) (*OrderSession, error) {
	if amountPaise <= 0 {
		return nil, ErrInvalidAmount
	}

	custID := cust.ID
	if custID == "" {
		custID = fmt.Sprintf("guest_%d", time.Now().Unix())
	}
	custName := cust.Name
	if custName == "" {
		custName = "Student"
	}

	body := map[string]interface{}{
		"order_amount":   float64(amountPaise) / 100,
		"order_currency": "INR",
		"customer_details": map[string]string{
			"customer_id":    custID,
			"customer_name":  custName,
			"customer_email": cust.Email,
			"customer_phone": "9999999999",
		},
		"order_meta": map[string]string{
			"return_url": returnURL,
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", g.appID)
	req.Header.Set("x-client-secret", g.secret)
	req.Header.Set("x-api-version", apiVersion)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &GatewayError{Status: http.StatusBadGateway, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &GatewayError{Status: http.StatusBadGateway, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &e)
		if e.Message == "" {
			e.Message = "order creation failed"
		}
		return nil, &GatewayError{Status: resp.StatusCode, Message: e.Message}
	}

	var out struct {
		OrderID          string `json:"order_id"`
		PaymentSessionID string `json:"payment_session_id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &GatewayError{Status: http.StatusBadGateway, Message: "unreadable gateway response"}
	}
	if out.OrderID == "" || out.PaymentSessionID == "" {
		return nil, &GatewayError{Status: http.StatusBadGateway, Message: "gateway response missing order identifiers"}
	}
	return &OrderSession{OrderID: out.OrderID, PaymentSessionID: out.PaymentSessionID}, nil
}
