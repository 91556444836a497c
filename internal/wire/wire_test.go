package wire

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wedding-booking/internal/data/memstore"
	"wedding-booking/internal/data/repository"
	"wedding-booking/internal/kafka"
	"wedding-booking/pkg/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const secret = "whsec_wire_test"

func newTestApp(t *testing.T) *App {
	t.Helper()
	config := &utils.Config{
		JWT:    utils.JWTConfig{Secret: "wire-secret", ExpiryHours: 1},
		Stripe: utils.StripeConfig{WebhookSecret: secret, Tolerance: 5 * time.Minute},
		Booking: utils.BookingConfig{
			TxTimeout:         time.Second,
			MinCommissionRate: decimal.RequireFromString("0.5"),
			MaxCommissionRate: decimal.RequireFromString("50"),
		},
		Kafka:     utils.KafkaConfig{BookingTopic: "booking-events"},
		RateLimit: utils.RateLimitConfig{RPS: 100, Burst: 100},
	}

	store := memstore.New(repository.TxOptions{TxTimeout: config.Booking.TxTimeout}, zap.NewNop())
	require.NoError(t, memstore.SeedDemo(store, "root@platform.example", "platform-pass"))

	return Wiring(store.Repository(), config, Deps{Publisher: kafka.NewLogProducer(zap.NewNop())}, zap.NewNop())
}

func do(app *App, method, path, token, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, app *App) string {
	t.Helper()
	rec := do(app, http.MethodPost, "/api/admin/login", "", `{"email":"root@platform.example","password":"platform-pass"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)
	return body.Data.Token
}

func checkoutPayload(eventID, date string) []byte {
	payload, _ := json.Marshal(map[string]any{
		"id":     eventID,
		"object": "event",
		"type":   "checkout.session.completed",
		"data": map[string]any{"object": map[string]any{
			"id":             "cs_" + eventID,
			"object":         "checkout.session",
			"payment_status": "paid",
			"amount_total":   250000,
			"metadata": map[string]string{
				"tenant_id":      "bella-weddings",
				"event_date":     date,
				"customer_email": "jane@example.com",
				"customer_name":  "Jane Doe",
			},
		}},
	})
	return payload
}

func deliver(app *App, payload []byte) *httptest.ResponseRecorder {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: secret, Timestamp: time.Now()})
	return do(app, http.MethodPost, "/api/webhooks/stripe/bella-weddings", "", string(payload),
		map[string]string{"Stripe-Signature": signed.Header})
}

func TestHealth(t *testing.T) {
	rec := do(newTestApp(t), http.MethodGet, "/health", "", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestWebhookToAdminFlow(t *testing.T) {
	app := newTestApp(t)

	rec := deliver(app, checkoutPayload("evt_1", "2026-06-15"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"outcome":"processed"`)

	rec = deliver(app, checkoutPayload("evt_1", "2026-06-15"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"duplicate"`)

	rec = deliver(app, checkoutPayload("evt_2", "2026-06-15"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Date no longer available")

	rec = do(app, http.MethodPost, "/api/webhooks/stripe/bella-weddings", "", string(checkoutPayload("evt_3", "2026-06-16")),
		map[string]string{"Stripe-Signature": "t=1,v1=deadbeef"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	token := login(t, app)
	base := fmt.Sprintf("/api/admin/tenants/%s", memstore.DemoTenantID)

	rec = do(app, http.MethodGet, base+"/bookings?status=PAID", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = do(app, http.MethodGet, base+"/webhook-events", token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"last_error":"date_unavailable"`)
	assert.NotContains(t, rec.Body.String(), "jane@example.com")
	assert.NotContains(t, rec.Body.String(), "evt_3")

	rec = do(app, http.MethodPut, base+"/commission", token, `{"rate":"99"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"commission_rate":"50"`)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)
	base := fmt.Sprintf("/api/admin/tenants/%s", memstore.DemoTenantID)

	assert.Equal(t, http.StatusUnauthorized, do(app, http.MethodGet, base+"/bookings", "", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(app, http.MethodGet, base+"/", "bogus", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(app, http.MethodGet, "/api/admin/tenants/not-a-uuid/bookings", login(t, app), "", nil).Code)
}
