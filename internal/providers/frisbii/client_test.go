package frisbii_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/limaskap/limaskap/internal/providers/frisbii"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessionRequest() frisbii.SessionRequest {
	return frisbii.SessionRequest{
		Order: frisbii.Order{
			Handle:   "program-7-abc",
			Amount:   50000,
			Currency: "DKK",
			Customer: frisbii.InlineCustomer(frisbii.Customer{
				Handle:    "user@example.com",
				Email:     "user@example.com",
				FirstName: "Jógvan",
			}),
			OrderText: "Swim - Ann Hansen",
		},
		AcceptURL: "https://acme.limaskap.fo/payment/success?handle=program-7-abc",
		CancelURL: "https://acme.limaskap.fo/payment/cancel?handle=program-7-abc",
	}
}

func TestCreateChargeSessionSendsAuthAndDefaults(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/session/charge", r.URL.Path)
		assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("priv_key:")), r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_123","url":"https://checkout.frisbii.com/#/cs_123","state":"created","order":{"handle":"program-7-abc","amount":50000,"currency":"DKK"}}`))
	}))
	defer srv.Close()

	client := frisbii.New("priv_key", frisbii.WithBaseURL(srv.URL))
	resp, err := client.CreateChargeSession(context.Background(), newSessionRequest())
	require.NoError(t, err)

	assert.Equal(t, "cs_123", resp.ID)
	assert.Equal(t, "https://checkout.frisbii.com/#/cs_123", resp.URL)
	assert.Equal(t, int64(50000), resp.Order.Amount)

	assert.Equal(t, true, captured["settle"])
	assert.Equal(t, "da_DK", captured["locale"])
	order := captured["order"].(map[string]any)
	customer := order["customer"].(map[string]any)
	assert.Equal(t, "user@example.com", customer["handle"])
	assert.Equal(t, float64(50000), order["amount"])
}

func TestCreateChargeSessionKeepsExplicitSettle(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://x.test/cs_1","state":"created","order":{"handle":"h","amount":1,"currency":"DKK"}}`))
	}))
	defer srv.Close()

	req := newSessionRequest()
	settle := false
	req.Settle = &settle
	req.Order.Customer = frisbii.CustomerRef("cust-1")

	_, err := frisbii.New("k", frisbii.WithBaseURL(srv.URL)).CreateChargeSession(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, false, captured["settle"])
	assert.Equal(t, "cust-1", captured["order"].(map[string]any)["customer"])
}

func TestCreateChargeSessionValidatesBeforeSending(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := frisbii.New("k", frisbii.WithBaseURL(srv.URL))

	zeroAmount := newSessionRequest()
	zeroAmount.Order.Amount = 0
	_, err := client.CreateChargeSession(context.Background(), zeroAmount)
	assert.ErrorIs(t, err, frisbii.ErrInvalidRequest)

	badCurrency := newSessionRequest()
	badCurrency.Order.Currency = "DK"
	_, err = client.CreateChargeSession(context.Background(), badCurrency)
	assert.ErrorIs(t, err, frisbii.ErrInvalidRequest)

	badURL := newSessionRequest()
	badURL.AcceptURL = "not a url"
	_, err = client.CreateChargeSession(context.Background(), badURL)
	assert.ErrorIs(t, err, frisbii.ErrInvalidRequest)

	for _, code := range []string{"1.5", "D1K", "dkk"} {
		req := newSessionRequest()
		req.Order.Currency = code
		_, err = client.CreateChargeSession(context.Background(), req)
		assert.ErrorIs(t, err, frisbii.ErrInvalidRequest, code)
	}

	noCustomer := newSessionRequest()
	noCustomer.Order.Customer = frisbii.OrderCustomer{}
	_, err = client.CreateChargeSession(context.Background(), noCustomer)
	assert.ErrorIs(t, err, frisbii.ErrInvalidRequest)

	assert.Equal(t, 0, calls)
}

func TestNon2xxReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Invalid currency","code":12}`))
	}))
	defer srv.Close()

	_, err := frisbii.New("k", frisbii.WithBaseURL(srv.URL)).CreateChargeSession(context.Background(), newSessionRequest())
	require.Error(t, err)

	apiErr, ok := frisbii.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid currency", apiErr.Message)
	assert.Equal(t, float64(12), apiErr.Body["code"])
	assert.True(t, apiErr.IsClientError())
}

func TestNon2xxWithUnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := frisbii.New("k", frisbii.WithBaseURL(srv.URL)).GetCharge(context.Background(), "member-1-x")
	apiErr, ok := frisbii.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "Frisbii API error: 502", apiErr.Message)
	assert.Empty(t, apiErr.Body)
	assert.False(t, apiErr.IsClientError())
}

func TestTransportErrorIsNotAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := frisbii.New("k", frisbii.WithBaseURL(srv.URL)).GetInvoice(context.Background(), "inv-1")
	require.Error(t, err)
	_, ok := frisbii.AsAPIError(err)
	assert.False(t, ok)
}

func TestReadEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1/charge/member-1-x":
			_, _ = w.Write([]byte(`{"id":"ch_1","handle":"member-1-x","state":"settled","customer":"c","amount":100,"currency":"DKK","created":"2024-01-01","transaction_id":"tx_1","source":{"type":"card","masked_card":"4111XXXXXXXX1111"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/invoice/program-1-x":
			_, _ = w.Write([]byte(`{"id":"inv_1","handle":"program-1-x","customer":"c","state":"settled","amount":100,"currency":"DKK","created":"2024-01-01","settled_amount":100,"transactions":[{"id":"t","type":"settle","state":"processed","amount":100,"created":"2024-01-01"}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/customer":
			body, _ := io.ReadAll(r.Body)
			_, _ = w.Write(body)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/customer/acme-member-1":
			_, _ = w.Write([]byte(`{"handle":"acme-member-1","email":"a@b.fo"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	client := frisbii.New("k", frisbii.WithBaseURL(srv.URL))

	charge, err := client.GetCharge(ctx, "member-1-x")
	require.NoError(t, err)
	assert.Equal(t, "tx_1", charge.TransactionID)
	require.NotNil(t, charge.Source)
	assert.Equal(t, "card", charge.Source.Type)

	invoice, err := client.GetInvoice(ctx, "program-1-x")
	require.NoError(t, err)
	require.NotNil(t, invoice.SettledAmount)
	assert.Equal(t, int64(100), *invoice.SettledAmount)
	assert.Len(t, invoice.Transactions, 1)

	created, err := client.CreateCustomer(ctx, frisbii.Customer{Handle: "acme-member-1", Email: "a@b.fo"})
	require.NoError(t, err)
	assert.Equal(t, "acme-member-1", created.Handle)

	fetched, err := client.GetCustomer(ctx, "acme-member-1")
	require.NoError(t, err)
	assert.Equal(t, "a@b.fo", fetched.Email)

	_, err = client.CreateCustomer(ctx, frisbii.Customer{})
	assert.ErrorIs(t, err, frisbii.ErrInvalidRequest)
}

func TestMissingAPIKey(t *testing.T) {
	_, err := frisbii.New("").GetCustomer(context.Background(), "x")
	assert.ErrorIs(t, err, frisbii.ErrMissingAPIKey)
}
