package adaptor

import (
	"errors"
	"io"
	"net/http"

	"wedding-booking/internal/dto/response"
	"wedding-booking/internal/usecase"
	"wedding-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxWebhookBodyBytes = 512 << 10
	stripeSignatureHdr  = "Stripe-Signature"
)

type WebhookHandler struct {
	service usecase.WebhookService
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.WebhookService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// Stripe handles POST /api/webhooks/stripe/{tenant}. The raw body is passed
// through untouched; signature verification needs the exact bytes.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ResponsePayloadTooLarge(w)
			return
		}
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.HandleStripeWebhook(r.Context(), chi.URLParam(r, "tenant"), payload, r.Header.Get(stripeSignatureHdr))
	if err != nil {
		handleServiceError(w, h.log, err, "stripe webhook")
		return
	}

	ack := response.WebhookAck{EventID: result.EventID, Outcome: string(result.Outcome)}
	if result.Booking != nil {
		ack.OrderID = result.Booking.OrderID
	}
	utils.ResponseSuccess(w, "Webhook "+string(result.Outcome), ack)
}
