package controllers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/acostajs/vanier-custom-keyboard-collective/models"
	"github.com/acostajs/vanier-custom-keyboard-collective/services"
	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = 64 << 10

type EventVerifier interface {
	VerifyEvent(payload []byte, signature string) (*models.PaymentEvent, error)
}

type EventHandler interface {
	HandleEvent(ctx context.Context, event *models.PaymentEvent) (services.Outcome, error)
}

type WebhookController struct {
	verifier EventVerifier
	handler  EventHandler
	logger   *slog.Logger
}

func NewWebhookController(verifier EventVerifier, handler EventHandler, logger *slog.Logger) *WebhookController {
	return &WebhookController{verifier: verifier, handler: handler, logger: logger}
}

// @Summary Payment processor webhook
// @Description Signed event delivery from the payment processor
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Event signature"
// @Success 200 {object} models.Response
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /cart/webhook [post]
func (ctrl *WebhookController) Handle(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid payload", Error: err.Error()})
		return
	}

	event, err := ctrl.verifier.VerifyEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		ctrl.logger.Warn("webhook rejected", "error", err)
		status := http.StatusBadRequest
		message := "Invalid payload"
		if errors.Is(err, models.ErrSignatureInvalid) {
			message = "Invalid signature"
		}
		c.JSON(status, models.ErrorResponse{Success: false, Message: message})
		return
	}

	outcome, err := ctrl.handler.HandleEvent(c.Request.Context(), event)
	if err != nil {
		ctrl.logger.Warn("webhook event not applied", "event_id", event.ID, "event_type", event.Type, "outcome", outcome, "error", err)
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Event received", gin.H{"event_id": event.ID, "outcome": outcome})
}
