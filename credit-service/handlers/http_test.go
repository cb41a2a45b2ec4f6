package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fulfillment/order-system/credit-service/application"
	"github.com/fulfillment/order-system/credit-service/domain"
	"github.com/fulfillment/order-system/credit-service/infrastructure"
	"github.com/fulfillment/order-system/shared/events"
	"github.com/fulfillment/order-system/shared/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, evts ...*events.Event) error { return nil }

func newTestServer(t *testing.T, limit int64, maintenance bool) *httptest.Server {
	t.Helper()

	ledger := infrastructure.NewMemoryCreditLedger()
	require.NoError(t, ledger.SeedAccount(context.Background(), &domain.CreditAccount{
		CustomerID: "customer-1",
		Limit:      limit,
		Currency:   "USD",
	}))

	flag := &atomic.Bool{}
	flag.Store(maintenance)

	handlers := NewCreditHandlers(application.NewReserveCredit(ledger, nopPublisher{}, flag))

	router := chi.NewRouter()
	handlers.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postReserve(t *testing.T, server *httptest.Server, orderID models.ID, amount int64) (*http.Response, string) {
	t.Helper()

	body := fmt.Sprintf(`{"order_id":%q,"customer_id":"customer-1","amount":%d,"currency":"USD"}`,
		orderID.String(), amount)

	req, err := http.NewRequest(http.MethodPost, server.URL+"/credits/reserve", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", orderID.String())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, strings.TrimSpace(string(data))
}

func TestCreditHandlers_ReserveCredit(t *testing.T) {
	t.Run("successful reservation", func(t *testing.T) {
		server := newTestServer(t, 10000, false)

		resp, body := postReserve(t, server, models.GenerateUUID(), 5000)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, `"status":"reserved"`)
	})

	t.Run("insufficient credit returns 500 with rejection body", func(t *testing.T) {
		server := newTestServer(t, 1000, false)

		resp, body := postReserve(t, server, models.GenerateUUID(), 5000)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Not enough credit", body)
	})

	t.Run("maintenance mode returns 503", func(t *testing.T) {
		server := newTestServer(t, 10000, true)

		resp, body := postReserve(t, server, models.GenerateUUID(), 5000)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "Service unavailable", body)
	})

	t.Run("replayed key returns the recorded outcome", func(t *testing.T) {
		server := newTestServer(t, 10000, false)
		orderID := models.GenerateUUID()

		first, _ := postReserve(t, server, orderID, 5000)
		assert.Equal(t, http.StatusOK, first.StatusCode)

		second, body := postReserve(t, server, orderID, 5000)
		assert.Equal(t, http.StatusOK, second.StatusCode)
		assert.Contains(t, body, `"replayed":true`)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		server := newTestServer(t, 10000, false)

		resp, err := http.Post(server.URL+"/credits/reserve", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
