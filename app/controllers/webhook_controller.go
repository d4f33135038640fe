package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidpersona/payments/internal/pkg/database"
	"github.com/vidpersona/payments/internal/pkg/logger"
	"github.com/vidpersona/payments/internal/pkg/payments"
)

// CORS values the provider-facing endpoint returns on every response. The
// allow list mirrors what the site frontend sends on preflight.
const (
	webhookAllowOrigin  = "*"
	webhookAllowHeaders = "authorization, x-client-info, apikey, content-type"
	webhookAllowMethods = "POST, OPTIONS"
)

const webhookTimeout = 15 * time.Second

// WebhookController handles payment-provider webhook deliveries.
type WebhookController struct {
	repo     payments.Repository
	verifier *payments.Verifier
	useCache bool
}

func NewWebhookController(repo payments.Repository, verifier *payments.Verifier) *WebhookController {
	return &WebhookController{repo: repo, verifier: verifier}
}

var webhookController *WebhookController

// InitializeWebhookController initializes the global webhook controller from
// the shared DB handle and environment configuration.
func InitializeWebhookController() {
	webhookController = NewWebhookController(
		payments.NewRepository(database.GetDB()),
		payments.NewVerifierFromEnv(),
	)
	webhookController.useCache = true
}

// GetWebhookController returns the global webhook controller instance
func GetWebhookController() *WebhookController {
	if webhookController == nil {
		InitializeWebhookController()
	}
	return webhookController
}

// HandlePayPalWebhookOptions answers the cross-origin preflight.
func HandlePayPalWebhookOptions(c *fiber.Ctx) error {
	setWebhookCORSHeaders(c)
	return c.SendStatus(fiber.StatusOK)
}

// HandlePayPalWebhook - Adapter for the PayPal webhook endpoint
func HandlePayPalWebhook(c *fiber.Ctx) error {
	return GetWebhookController().HandlePayPalWebhook(c)
}

// HandlePayPalWebhook accepts a PayPal event payload, classifies it and
// performs the corresponding reconciliation writes. 200 tells the provider
// the delivery is settled; 400 invites a retry.
func (wc *WebhookController) HandlePayPalWebhook(c *fiber.Ctx) error {
	setWebhookCORSHeaders(c)

	rawBody := append([]byte(nil), c.BodyRaw()...)
	log := logger.Get().With(
		zap.String("correlation_id", uuid.NewString()),
		zap.String("provider", "paypal"),
	)

	ev, err := payments.ParseWebhookEvent(rawBody)
	if err != nil {
		log.Warn("rejecting malformed webhook payload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	log = log.With(zap.String("event_type", ev.EventType), zap.String("event_id", ev.ID))

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	if wc.verifier != nil && wc.verifier.Enabled() {
		ok, err := wc.verifier.VerifySignature(ctx, signatureHeadersFromRequest(c), rawBody)
		if err != nil {
			log.Warn("signature verification errored", zap.Error(err))
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "signature verification failed"})
		}
		if !ok {
			log.Warn("signature verification rejected delivery")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
		}
	}

	svc := payments.NewService(wc.repo, log)
	if wc.useCache {
		svc = svc.WithMappingCache()
	}
	result, err := svc.HandleEvent(ctx, ev, rawBody)
	if err != nil {
		log.Error("webhook processing failed", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	log.Info("webhook processed",
		zap.Bool("handled", result.Handled),
		zap.Bool("duplicate", result.Duplicate),
		zap.Int("entitlements", result.Entitlements),
	)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

func setWebhookCORSHeaders(c *fiber.Ctx) {
	c.Set("Access-Control-Allow-Origin", webhookAllowOrigin)
	c.Set("Access-Control-Allow-Headers", webhookAllowHeaders)
	c.Set("Access-Control-Allow-Methods", webhookAllowMethods)
}

func signatureHeadersFromRequest(c *fiber.Ctx) payments.SignatureHeaders {
	return payments.SignatureHeaders{
		TransmissionID:   c.Get("Paypal-Transmission-Id"),
		TransmissionTime: c.Get("Paypal-Transmission-Time"),
		TransmissionSig:  c.Get("Paypal-Transmission-Sig"),
		CertURL:          c.Get("Paypal-Cert-Url"),
		AuthAlgo:         c.Get("Paypal-Auth-Algo"),
	}
}
