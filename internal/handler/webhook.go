package handler

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/interna-ai/assessment-service/internal/model"
	"github.com/interna-ai/assessment-service/internal/payment"
	"github.com/interna-ai/assessment-service/internal/repository"
)

type orderSettler interface {
	MarkPaid(ctx context.Context, cfOrderID string) (model.Order, error)
	MarkFailed(ctx context.Context, cfOrderID string) (model.Order, error)
}

type entitlementGranter interface {
	Grant(ctx context.Context, userID uint64, offeringID string, cfOrderID *string) error
}

// WebhookHandler processes payment gateway callbacks. Signature
// verification happens before the body is even parsed; everything after it
// must stay idempotent because gateways redeliver.
type WebhookHandler struct {
	Secret       string
	Orders       orderSettler
	Entitlements entitlementGranter
	// Publish forwards a settled payment to the message queue for the
	// audit consumer. Optional; errors are logged, not surfaced, so a
	// broker outage never makes the gateway retry a processed event.
	Publish func(ctx context.Context, o model.Order) error
}

// Handle verifies and applies a single webhook delivery. 401 for a bad or
// missing signature, 400 for a signed but malformed payload, 500 when a
// SUCCESS event references an unknown order so the gateway retries after
// the order row lands.
func (h *WebhookHandler) Handle(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable body"})
	}

	sig := c.Request().Header.Get("x-webhook-signature")
	ts := c.Request().Header.Get("x-webhook-timestamp")
	if !payment.VerifySignature(h.Secret, ts, raw, sig) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid signature"})
	}

	ev, err := payment.ParseEvent(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed event"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	switch ev.PaymentStatus {
	case payment.PaymentStatusSuccess:
		if err := h.settleSuccess(ctx, ev.OrderID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settlement failed"})
		}
	case payment.PaymentStatusFailed, payment.PaymentStatusUserDropped:
		if _, err := h.Orders.MarkFailed(ctx, ev.OrderID); err != nil && !errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "settlement failed"})
		}
	default:
		// Intermediate statuses (e.g. PENDING) are acknowledged and ignored.
	}

	return c.JSON(http.StatusOK, echo.Map{"received": true})
}

func (h *WebhookHandler) settleSuccess(ctx context.Context, cfOrderID string) error {
	order, err := h.Orders.MarkPaid(ctx, cfOrderID)
	if err != nil {
		// Unknown order means the create-order transaction has not landed
		// yet. Erroring out makes the gateway redeliver later.
		return err
	}

	// MarkPaid is a no-op on redelivery (status already PAID) but still
	// returns the order, and Grant upserts, so the whole path is idempotent.
	// A terminal FAILED row never transitions, so a stray late SUCCESS
	// must not mint access either.
	if order.Status != model.OrderStatusPaid {
		return nil
	}
	if order.UserID != nil {
		id := order.CfOrderID
		if err := h.Entitlements.Grant(ctx, *order.UserID, order.OfferingID, &id); err != nil {
			return err
		}
	}

	if h.Publish != nil {
		if err := h.Publish(ctx, order); err != nil {
			log.Printf("payment event publish failed: cf_order_id=%s err=%v", order.CfOrderID, err)
		}
	}
	return nil
}
