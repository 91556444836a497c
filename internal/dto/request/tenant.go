package request

type UpdateCommissionRequest struct {
	// Percent, e.g. "12.5". Out-of-range values are clamped, not rejected.
	Rate string `json:"rate" validate:"required,numeric"`
}
