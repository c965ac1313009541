package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Payment statuses reported by the gateway inside webhook events.
const (
	PaymentStatusSuccess     = "SUCCESS"
	PaymentStatusFailed      = "FAILED"
	PaymentStatusUserDropped = "USER_DROPPED"
)

var (
	// ErrBadSignature is returned when the webhook signature does not match.
	ErrBadSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent is returned when the payload cannot be decoded or
	// lacks the order reference.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// WebhookEvent is the subset of a gateway notification this service acts
// on: which order, and what the gateway says happened to its payment.
type WebhookEvent struct {
	Type          string
	OrderID       string
	PaymentStatus string
}

// VerifySignature recomputes the webhook HMAC and compares it against the
// signature header. The signed payload is the raw timestamp header
// concatenated with the raw request body, the digest is HMAC-SHA256 keyed
// by the shared secret and base64-encoded. hmac.Equal keeps the comparison
// constant-time; a plain == here would leak a timing side channel.
func VerifySignature(secret, timestamp string, rawBody []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(rawBody)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseEvent decodes a verified webhook body. Signature verification must
// happen first on the raw bytes; parsing never runs on unauthenticated
// input in the handler.
func ParseEvent(rawBody []byte) (WebhookEvent, error) {
	var payload struct {
		Type string `json:"type"`
		Data struct {
			Order struct {
				OrderID string `json:"order_id"`
			} `json:"order"`
			Payment struct {
				PaymentStatus string `json:"payment_status"`
			} `json:"payment"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return WebhookEvent{}, ErrMalformedEvent
	}
	if strings.TrimSpace(payload.Data.Order.OrderID) == "" {
		return WebhookEvent{}, ErrMalformedEvent
	}
	return WebhookEvent{
		Type:          payload.Type,
		OrderID:       payload.Data.Order.OrderID,
		PaymentStatus: payload.Data.Payment.PaymentStatus,
	}, nil
}
