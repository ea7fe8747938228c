package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthapp/hearth/internal/payments"
)

// darajaStub answers token and STK push requests for the full-stack handler
// tests.
func darajaStub(t *testing.T, pushBody map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "stub-token"})
	})
	mux.HandleFunc("/mpesa/stkpush/v1/processrequest", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pushBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestServer(t *testing.T, pushBody map[string]any) *Server {
	t.Helper()
	provider := darajaStub(t, pushBody)
	store := payments.NewMemoryStore()
	t.Cleanup(func() { store.Close() })
	daraja := payments.NewDarajaClient(payments.DarajaConfig{
		ConsumerKey:    "key",
		ConsumerSecret: "secret",
		ShortCode:      "174379",
		Passkey:        "passkey",
		BaseURL:        provider.URL,
	}, provider.Client())
	svc := payments.NewService(store, daraja, nil)
	return NewServer(svc, nil, nil, ServerConfig{})
}

func doJSON(t *testing.T, server *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	server := newTestServer(t, nil)
	rec := doJSON(t, server, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, body["time"])
}

func TestDepositEndpoint(t *testing.T) {
	server := newTestServer(t, map[string]any{
		"CheckoutRequestID": "ws_CO_http",
		"ResponseCode":      "0",
	})
	rec := doJSON(t, server, http.MethodPost, "/api/payments/mpesa/deposit",
		`{"amount":150,"phone":"254712345678"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, "ws_CO_http", body["reference"])
}

func TestDepositMissingFields(t *testing.T) {
	server := newTestServer(t, nil)

	rec := doJSON(t, server, http.MethodPost, "/api/payments/mpesa/deposit", `{"amount":100}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "amount and phone required")

	rec = doJSON(t, server, http.MethodPost, "/api/payments/mpesa/deposit", `{"phone":"254700000000"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepositProviderRejection(t *testing.T) {
	server := newTestServer(t, map[string]any{
		"ResponseCode":        "1",
		"ResponseDescription": "Insufficient funds",
	})
	rec := doJSON(t, server, http.MethodPost, "/api/payments/mpesa/deposit",
		`{"amount":100,"phone":"254700000000"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "failed", body["status"])
	assert.Equal(t, "Insufficient funds", body["error"])
}

func TestWithdrawEndpoint(t *testing.T) {
	server := newTestServer(t, nil)
	rec := doJSON(t, server, http.MethodPost, "/api/payments/mpesa/withdraw",
		`{"amount":200,"phone":"254722222222","kidId":"k1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "succeeded", body["status"])
	assert.Contains(t, body["reference"], "MPESA-WD-")
}

func TestCardDepositEndpoint(t *testing.T) {
	server := newTestServer(t, nil)
	rec := doJSON(t, server, http.MethodPost, "/api/payments/card/deposit", `{"amount":300}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["reference"], "CARD-")

	rec = doJSON(t, server, http.MethodPost, "/api/payments/card/deposit", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallbackFlow(t *testing.T) {
	server := newTestServer(t, map[string]any{
		"CheckoutRequestID": "ws_CO_cb",
		"ResponseCode":      "0",
	})
	rec := doJSON(t, server, http.MethodPost, "/api/payments/mpesa/deposit",
		`{"amount":150,"phone":"254712345678"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	callback := `{"Body":{"stkCallback":{
		"CheckoutRequestID":"ws_CO_cb",
		"ResultCode":0,
		"ResultDesc":"Success",
		"CallbackMetadata":{"Item":[
			{"Name":"Amount","Value":150},
			{"Name":"MpesaReceiptNumber","Value":"ABC123"}
		]}
	}}}`
	rec = doJSON(t, server, http.MethodPost, "/api/payments/mpesa/callback", callback)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(0), body["ResultCode"])
	assert.Equal(t, "Accepted", body["ResultDesc"])

	rec = doJSON(t, server, http.MethodGet, "/api/payments/mpesa/status/ws_CO_cb", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "succeeded", body["status"])
	assert.Equal(t, "ABC123", body["receipt"])
}

func TestCallbackStructurallyInvalid(t *testing.T) {
	server := newTestServer(t, nil)

	cases := map[string]string{
		"not json":          `{broken`,
		"missing body":      `{}`,
		"missing callback":  `{"Body":{}}`,
		"missing reference": `{"Body":{"stkCallback":{"ResultCode":0}}}`,
		"empty reference":   `{"Body":{"stkCallback":{"CheckoutRequestID":"","ResultCode":0}}}`,
		"non-integer code":  `{"Body":{"stkCallback":{"CheckoutRequestID":"r","ResultCode":"zero"}}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, server, http.MethodPost, "/api/payments/mpesa/callback", payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCallbackRepeatStillAccepted(t *testing.T) {
	server := newTestServer(t, nil)
	callback := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_dup","ResultCode":0,
		"CallbackMetadata":{"Item":[{"Name":"MpesaReceiptNumber","Value":"R1"}]}}}}`

	for i := 0; i < 2; i++ {
		rec := doJSON(t, server, http.MethodPost, "/api/payments/mpesa/callback", callback)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Accepted", decodeBody(t, rec)["ResultDesc"])
	}

	// Late contradictory callback is acked but changes nothing.
	late := `{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_dup","ResultCode":1,"ResultDesc":"late"}}}`
	rec := doJSON(t, server, http.MethodPost, "/api/payments/mpesa/callback", late)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/payments/mpesa/status/ws_CO_dup", "")
	body := decodeBody(t, rec)
	assert.Equal(t, "succeeded", body["status"])
	assert.Equal(t, "R1", body["receipt"])
}

func TestStatusUnknownReference(t *testing.T) {
	server := newTestServer(t, nil)
	rec := doJSON(t, server, http.MethodGet, "/api/payments/mpesa/status/nope", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decodeBody(t, rec)["status"])
}

func TestMetricsEndpointMounted(t *testing.T) {
	server := newTestServer(t, nil)
	rec := doJSON(t, server, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
