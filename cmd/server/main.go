package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/interna-ai/assessment-service/internal/assessment"
	"github.com/interna-ai/assessment-service/internal/config"
	"github.com/interna-ai/assessment-service/internal/database"
	"github.com/interna-ai/assessment-service/internal/handler"
	"github.com/interna-ai/assessment-service/internal/middleware"
	"github.com/interna-ai/assessment-service/internal/model"
	"github.com/interna-ai/assessment-service/internal/payment"
	"github.com/interna-ai/assessment-service/internal/queue"
	"github.com/interna-ai/assessment-service/internal/repository"
	"github.com/interna-ai/assessment-service/internal/router"
	queue_publisher "github.com/interna-ai/assessment-service/internal/service"
)

func main() {
	// Local development reads .env; in production the variables are set by
	// the orchestrator and the file simply does not exist.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when REDIS_ADDR is unset

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	offerings := repository.NewOfferingRepo(db)
	orders := repository.NewOrderRepo(db)
	entitlements := repository.NewEntitlementRepo(db)
	questions := repository.NewQuestionRepo(db)
	attempts := repository.NewAttemptRepo(db)

	// Payment gateway and bypass token issuer.
	gateway := payment.NewGateway(cfg.CashfreeBaseURL, cfg.CashfreeAppID, cfg.CashfreeSecret)
	issuer := payment.NewIssuer(time.Duration(cfg.BypassTokenTTLSecs) * time.Second)

	// In-memory exam runtime.
	sessions := assessment.NewStore(assessment.Config{
		Duration:       time.Duration(cfg.AssessmentDurationSecs) * time.Second,
		ViolationLimit: cfg.ViolationLimit,
		PassPercentage: cfg.PassPercentage,
	})
	defer sessions.Close()

	// Handlers.
	authH := handler.NewAuthHandler(cfg, users, tokens)
	offeringH := &handler.OfferingHandler{Offerings: offerings}
	paymentH := &handler.PaymentHandler{
		Cfg:       cfg,
		Gateway:   gateway,
		Orders:    orders,
		Offerings: offerings,
		Users:     users,
		Issuer:    issuer,
	}
	webhookH := &handler.WebhookHandler{
		Secret:       cfg.WebhookSecret,
		Orders:       orders,
		Entitlements: entitlements,
		Publish: func(ctx context.Context, o model.Order) error {
			return queue_publisher.PublishPaymentCaptured(ctx, queue.PaymentCapturedEvent{
				OrderID:     o.CfOrderID,
				UserID:      o.UserID,
				OfferingID:  o.OfferingID,
				AmountPaise: o.AmountPaise,
				Status:      o.Status,
				CapturedAt:  time.Now().UTC().Format(time.RFC3339),
			})
		},
	}
	assessmentH := &handler.AssessmentHandler{
		Sessions:       sessions,
		Questions:      questions,
		Entitlements:   entitlements,
		Attempts:       attempts,
		Issuer:         issuer,
		Offerings:      offerings,
		ViolationLimit: cfg.ViolationLimit,
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterPublic(e, offeringH, cache)
	router.RegisterPayments(e, paymentH, webhookH, cfg.JWTSecret, limiter)
	router.RegisterAssessments(e, assessmentH, cfg.JWTSecret)

	// Audit consumer; reconnects on its own and never brings the API down.
	go func() {
		if err := queue.StartPaymentConsumer(); err != nil {
			log.Printf("payment consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
