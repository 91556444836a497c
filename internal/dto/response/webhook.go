package response

import (
	"time"

	"wedding-booking/internal/data/entity"
)

type WebhookEventResponse struct {
	ID              string                    `json:"id"`
	ExternalEventID string                    `json:"external_event_id"`
	EventType       string                    `json:"event_type"`
	PayloadSummary  string                    `json:"payload_summary"`
	Status          entity.WebhookEventStatus `json:"status"`
	LastError       *entity.ErrorCategory     `json:"last_error,omitempty"`
	Attempts        int                       `json:"attempts"`
	ProcessedAt     *time.Time                `json:"processed_at,omitempty"`
	CreatedAt       time.Time                 `json:"created_at"`
}

func WebhookEventToResponse(e *entity.WebhookEvent) WebhookEventResponse {
	return WebhookEventResponse{
		ID:              e.ID.String(),
		ExternalEventID: e.ExternalEventID,
		EventType:       e.EventType,
		PayloadSummary:  e.PayloadSummary,
		Status:          e.Status,
		LastError:       e.LastError,
		Attempts:        e.Attempts,
		ProcessedAt:     e.ProcessedAt,
		CreatedAt:       e.CreatedAt,
	}
}

// WebhookAck is the body returned to the payment provider.
type WebhookAck struct {
	EventID string `json:"event_id"`
	Outcome string `json:"outcome"`
	OrderID string `json:"order_id,omitempty"`
}
