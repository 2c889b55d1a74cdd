package controllers

import (
	"io"
	"net/http"

	"github.com/cnichols1734/belvieu-digital/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const maxWebhookBodyBytes = 65536

// WebhookController receives payment processor deliveries. Responses here
// speak to Stripe's retry machinery, not to browsers, so it bypasses the
// standard API envelope.
type WebhookController struct {
	stripeService services.StripeServiceInterface
	webhookSecret string
}

func NewWebhookController(stripeService services.StripeServiceInterface, cfg services.StripeConfig) *WebhookController {
	return &WebhookController{
		stripeService: stripeService,
		webhookSecret: cfg.WebhookSecret,
	}
}

// HandleStripeWebhook verifies the signature over the raw body, then hands
// the event to the ingestion service. 400 means the delivery itself is
// bad (no retry will fix it); 500 asks Stripe to redeliver.
func (w *WebhookController) HandleStripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing Stripe-Signature header"})
		return
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, w.webhookSecret)
	if err != nil {
		zap.L().Warn("webhook signature verification failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	outcome, err := w.stripeService.HandleEvent(c.Request.Context(), event)
	if err != nil {
		zap.L().Error("webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": outcome})
}
