package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(t *testing.T, payload []byte, at time.Time, secret string) string {
	t.Helper()
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeSignature(ts, payload, secret))
}

func TestConstructEvent_Valid(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_1", "customer": "cus_1", "subscription": "sub_1", "metadata": {"user_id": "u1"}}}
	}`)
	header := signPayload(t, payload, time.Now(), testWebhookSecret)

	event, err := ConstructEvent(payload, header, testWebhookSecret)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "evt_1", event.ID)
	assert.Contains(t, string(event.Data.Object), "cus_1")
}

func TestConstructEvent_WrongSecret(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "customer.subscription.deleted", "data": {"object": {}}}`)
	header := signPayload(t, payload, time.Now(), "whsec_other")

	_, err := ConstructEvent(payload, header, testWebhookSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEvent_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "customer.subscription.updated", "data": {"object": {}}}`)
	header := signPayload(t, payload, time.Now(), testWebhookSecret)

	tampered := []byte(`{"id": "evt_1", "type": "customer.subscription.deleted", "data": {"object": {}}}`)
	_, err := ConstructEvent(tampered, header, testWebhookSecret)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEvent_StaleTimestamp(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "customer.subscription.updated", "data": {"object": {}}}`)
	header := signPayload(t, payload, time.Now().Add(-10*time.Minute), testWebhookSecret)

	_, err := ConstructEvent(payload, header, testWebhookSecret)
	assert.ErrorIs(t, err, ErrStaleTimestamp)
}

func TestConstructEvent_MalformedHeader(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "x", "data": {"object": {}}}`)

	for _, header := range []string{"", "v1=abc", "t=notanumber,v1=abc", "t=123"} {
		_, err := ConstructEvent(payload, header, testWebhookSecret)
		assert.ErrorIs(t, err, ErrInvalidSignature, "header %q", header)
	}
}
