package sslcommerz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bonikcommerce/bonik-backend/pkg/config"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.SSLCommerzConfig{
		StoreID:           "teststore",
		StorePassword:     "testpass",
		ValidationBaseURL: baseURL,
		ValidationTimeout: 2 * time.Second,
	}, nil)
	require.NoError(t, err)
	return client
}

func TestValidate_Valid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "val-123", r.URL.Query().Get("val_id"))
		require.Equal(t, "teststore", r.URL.Query().Get("store_id"))
		require.Equal(t, "testpass", r.URL.Query().Get("store_passwd"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "VALID",
			"tran_id": "T6UWMI",
			"val_id": "val-123",
			"amount": "5208.00",
			"currency": "BDT",
			"card_type": "VISA",
			"bank_tran_id": "bank-1",
			"risk_level": "0"
		}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	resp, err := client.Validate(context.Background(), "val-123")
	require.NoError(t, err)
	require.True(t, resp.Settled())
	require.False(t, resp.TerminalFailure())
	require.Equal(t, "T6UWMI", resp.TranID)
	require.Equal(t, "5208.00", resp.Amount)
}

func TestValidate_PendingIsNotSettled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": "PENDING", "tran_id": "T1", "val_id": "v1"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	resp, err := client.Validate(context.Background(), "v1")
	require.NoError(t, err)
	require.False(t, resp.Settled())
	require.False(t, resp.TerminalFailure())
}

func TestValidate_RetriesTransientFailureOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"status": "VALIDATED", "tran_id": "T2", "val_id": "v2", "amount": "100.00", "currency": "BDT"}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	resp, err := client.Validate(context.Background(), "v2")
	require.NoError(t, err)
	require.True(t, resp.Settled())
	require.Equal(t, int32(2), calls.Load())
}

func TestValidate_GivesUpAfterRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	_, err := client.Validate(context.Background(), "v3")
	require.Error(t, err)
	require.Equal(t, int32(2), calls.Load())
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(config.SSLCommerzConfig{}, nil)
	require.Error(t, err)
}

func TestValidate_RequiresValID(t *testing.T) {
	client := testClient(t, "http://localhost:0")
	_, err := client.Validate(context.Background(), " ")
	require.Error(t, err)
}
