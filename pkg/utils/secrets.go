package utils

// WebhookSecrets holds the Stripe endpoint secrets. Built once at startup from
// config and never mutated afterwards, so it is safe for concurrent reads.
type WebhookSecrets struct {
	fallback  string
	perTenant map[string]string
}

func NewWebhookSecrets(config StripeConfig) *WebhookSecrets {
	perTenant := make(map[string]string, len(config.WebhookSecrets))
	for slug, secret := range config.WebhookSecrets {
		perTenant[slug] = secret
	}
	return &WebhookSecrets{
		fallback:  config.WebhookSecret,
		perTenant: perTenant,
	}
}

// For returns the endpoint secret for a tenant slug.
func (s *WebhookSecrets) For(slug string) (string, bool) {
	if secret, ok := s.perTenant[slug]; ok {
		return secret, true
	}
	return s.fallback, s.fallback != ""
}
