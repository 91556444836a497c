package request

type BookingListRequest struct {
	PaginatedRequest
	Status    string `json:"status" validate:"omitempty,oneof=PENDING PAID CANCELED REFUNDED"`
	EventDate string `json:"event_date" validate:"omitempty,datetime=2006-01-02"`
}
