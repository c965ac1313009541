package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/interna-ai/assessment-service/internal/config"
	"github.com/interna-ai/assessment-service/internal/model"
	"github.com/interna-ai/assessment-service/internal/payment"
	"github.com/interna-ai/assessment-service/internal/repository"
)

// Narrow interfaces over the gateway and repositories keep the handler
// testable with in-memory stubs.
type orderCreator interface {
	CreateOrder(ctx context.Context, amountPaise int64, cust payment.Customer, returnURL string) (*payment.OrderSession, error)
}

type orderStore interface {
	Create(ctx context.Context, cfOrderID string, userID *uint64, offeringID string, amountPaise int64) error
	ListByUser(ctx context.Context, userID uint64) ([]model.Order, error)
}

type offeringSource interface {
	GetByID(ctx context.Context, id string) (model.Offering, error)
}

type userSource interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type tokenIssuer interface {
	Issue() (string, error)
}

// PaymentHandler creates gateway orders for offering purchases. The return
// URL carries a short-lived bypass token so a student landing back from the
// hosted checkout can enter the assessment before the webhook settles.
type PaymentHandler struct {
	Cfg       config.Config
	Gateway   orderCreator
	Orders    orderStore
	Offerings offeringSource
	Users     userSource
	Issuer    tokenIssuer
}

type createOrderReq struct {
	// Amount is in rupees, matching what the checkout UI displays.
	Amount     float64 `json:"amount"`
	OfferingID string  `json:"offering_id"`
}

type createOrderResp struct {
	OrderID          string `json:"order_id"`
	PaymentSessionID string `json:"payment_session_id"`
}

type orderPart struct {
	OrderID     string    `json:"order_id"`
	OfferingID  string    `json:"offering_id"`
	AmountPaise int64     `json:"amount_paise"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateOrder validates the purchase, registers the order with the payment
// gateway and persists it as PENDING. Requires an authenticated student.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}
	if req.OfferingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "offering_id required"})
	}

	uid, ok := mustPrincipalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	off, err := h.Offerings.GetByID(ctx, req.OfferingID)
	if err != nil {
		if errors.Is(err, repository.ErrOfferingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offering not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "offering lookup failed"})
	}
	if !off.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offering not found"})
	}

	// Client-supplied amount must match the catalog price. Paise comparison
	// avoids float equality on money.
	amountPaise := int64(req.Amount*100 + 0.5)
	if amountPaise != off.PricePaise {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount does not match offering price"})
	}

	cust := payment.Customer{}
	if u, err := h.Users.GetByID(ctx, uid); err == nil {
		cust = payment.Customer{ID: u.Email, Name: u.FullName, Email: u.Email}
	}

	tok, err := h.Issuer.Issue()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token mint failed"})
	}
	returnURL := h.Cfg.AppBaseURL + "/test/" + off.ID + "?token=" + tok

	sess, err := h.Gateway.CreateOrder(ctx, amountPaise, cust, returnURL)
	if err != nil {
		var ge *payment.GatewayError
		if errors.As(err, &ge) {
			// Surface the gateway's status so the client can distinguish
			// auth problems from transient upstream failures.
			return c.JSON(ge.Status, echo.Map{"error": ge.Message})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
	}

	if err := h.Orders.Create(ctx, sess.OrderID, &uid, off.ID, amountPaise); err != nil {
		// Order exists at the gateway but not locally; the webhook cannot
		// reconcile it, so fail loudly.
		log.Printf("order persist failed: cf_order_id=%s err=%v", sess.OrderID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "order persist failed"})
	}

	return c.JSON(http.StatusOK, createOrderResp{
		OrderID:          sess.OrderID,
		PaymentSessionID: sess.PaymentSessionID,
	})
}

// ListOrders returns the caller's payment history, newest first.
func (h *PaymentHandler) ListOrders(c echo.Context) error {
	uid, ok := mustPrincipalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	list, err := h.Orders.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]orderPart, 0, len(list))
	for _, o := range list {
		out = append(out, orderPart{
			OrderID:     o.CfOrderID,
			OfferingID:  o.OfferingID,
			AmountPaise: o.AmountPaise,
			Status:      o.Status,
			CreatedAt:   o.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": out})
}
