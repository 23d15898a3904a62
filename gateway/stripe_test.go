package gateway

import (
	"testing"
	"time"

	"writing_marketplace/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76/webhook"
)

func signStripe(t *testing.T, payload, secret string) string {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestStripeWebhookCheckoutCompleted(t *testing.T) {
	c := NewStripeClient(config.Stripe{SecretKey: "sk_test", WebhookSecret: "whsec_test", Currency: "usd"})
	payload := `{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"object": "checkout.session",
			"payment_status": "paid",
			"amount_total": 6360,
			"metadata": {"orderId": "order-1", "paymentId": "pay-1"}
		}}
	}`

	ev, err := c.ParseWebhook([]byte(payload), signStripe(t, payload, "whsec_test"))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, StripeEventSucceeded, ev.Kind)
	assert.Equal(t, "order-1", ev.OrderID)
	assert.Equal(t, "pay-1", ev.PaymentID)
	assert.Equal(t, "cs_1", ev.ProviderRef)
	assert.EqualValues(t, 6360, ev.AmountCents)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	c := NewStripeClient(config.Stripe{WebhookSecret: "whsec_test"})
	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`

	_, err := c.ParseWebhook([]byte(payload), signStripe(t, payload, "whsec_other"))
	assert.Error(t, err)
}

func TestStripeWebhookIntentEvents(t *testing.T) {
	c := NewStripeClient(config.Stripe{WebhookSecret: "whsec_test"})

	failed := `{"id":"evt_2","object":"event","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_1","object":"payment_intent","amount":3180,"metadata":{"orderId":"order-2","paymentId":"pay-2"}}}}`
	ev, err := c.ParseWebhook([]byte(failed), signStripe(t, failed, "whsec_test"))
	require.NoError(t, err)
	assert.Equal(t, StripeEventFailed, ev.Kind)
	assert.Equal(t, "pi_1", ev.ProviderRef)

	fromCheckout := `{"id":"evt_3","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_2","object":"payment_intent","amount":3180,"metadata":{}}}}`
	ev, err = c.ParseWebhook([]byte(fromCheckout), signStripe(t, fromCheckout, "whsec_test"))
	require.NoError(t, err)
	assert.Equal(t, StripeEventIgnored, ev.Kind)
}
