package request

// CheckoutMetadata is the booking intent carried in a Checkout Session's metadata.
type CheckoutMetadata struct {
	TenantID      string   `json:"tenant_id" validate:"required,max=100"`
	EventDate     string   `json:"event_date" validate:"required,datetime=2006-01-02"`
	CustomerEmail string   `json:"customer_email" validate:"required,email,max=254"`
	CustomerName  string   `json:"customer_name" validate:"required,min=1,max=200"`
	AddonIDs      []string `json:"addon_ids" validate:"max=50,dive,uuid"`
}

// Metadata keys written by the checkout flow.
const (
	MetadataTenantID      = "tenant_id"
	MetadataEventDate     = "event_date"
	MetadataCustomerEmail = "customer_email"
	MetadataCustomerName  = "customer_name"
	MetadataAddonIDs      = "addon_ids"
)
