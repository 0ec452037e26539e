package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePreference(t *testing.T) {
	var got PreferenceRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer mp-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pref-123","init_point":"https://mp/checkout"}`))
	}))
	defer srv.Close()

	c := NewMercadoPagoClient(srv.URL+"/", "mp-token", srv.Client())
	id, err := c.CreatePreference(context.Background(), PreferenceRequest{
		Items:    []PreferenceItem{{ID: "monthly", Title: "Plan Mensual", Quantity: 1, UnitPrice: 9.99, CurrencyID: "USD"}},
		Metadata: map[string]string{"userId": "u-1", "planId": "monthly"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-123", id)
	assert.Equal(t, "u-1", got.Metadata["userId"])
	assert.Equal(t, 9.99, got.Items[0].UnitPrice)
}

func TestCreatePreference_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid access token"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewMercadoPagoClient(srv.URL, "bad", srv.Client())
	_, err := c.CreatePreference(context.Background(), PreferenceRequest{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestCreatePreference_NoAccessToken(t *testing.T) {
	c := NewMercadoPagoClient("http://unused", "", nil)
	_, err := c.CreatePreference(context.Background(), PreferenceRequest{})
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestVerifySignature(t *testing.T) {
	v1 := Sign("secret", "req-1", "ABC123", "1700000000")
	header := "ts=1700000000,v1=" + v1

	assert.NoError(t, VerifySignature("secret", header, "req-1", "ABC123"))
	assert.ErrorIs(t, VerifySignature("other", header, "req-1", "ABC123"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("secret", header, "req-2", "ABC123"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("secret", "v1="+v1, "req-1", "ABC123"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("secret", "ts=1,v1=zz", "req-1", "ABC123"), ErrInvalidSignature)
}
