package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/fulfillment/order-system/order-service/domain"
	"github.com/fulfillment/order-system/shared/retry"
	"github.com/pkg/errors"
)

const idempotencyKeyHeader = "Idempotency-Key"

// reserveRequest is the wire format of a credit reservation request
type reserveRequest struct {
	OrderID    string `json:"order_id"`
	CustomerID string `json:"customer_id"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
}

// HTTPCreditClient implements CreditReserver against the credit service.
// Every attempt carries the order id as idempotency key so the remote side
// can deduplicate; retrying never double-reserves.
type HTTPCreditClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPCreditClient creates a new credit reservation client
func NewHTTPCreditClient(baseURL string, timeout time.Duration) *HTTPCreditClient {
	return &HTTPCreditClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Reserve invokes the credit service and classifies the outcome. Transport
// errors classify as transient; only context cancellation is returned as an
// error.
func (c *HTTPCreditClient) Reserve(ctx context.Context, reservation domain.CreditReservation) (domain.ReservationResult, error) {
	body, err := json.Marshal(reserveRequest{
		OrderID:    reservation.OrderID.String(),
		CustomerID: reservation.CustomerID,
		Amount:     reservation.Amount.Amount,
		Currency:   reservation.Amount.Currency,
	})
	if err != nil {
		return domain.ReservationResult{}, errors.Wrap(err, "failed to encode reservation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/credits/reserve", bytes.NewReader(body))
	if err != nil {
		return domain.ReservationResult{}, errors.Wrap(err, "failed to build reservation request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(idempotencyKeyHeader, reservation.IdempotencyKey())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return domain.ReservationResult{}, ctx.Err()
		}
		// Timeouts and connection resets are presumed recoverable
		return domain.ReservationResult{
			Outcome: retry.OutcomeTransient,
			Reason:  err.Error(),
		}, nil
	}
	defer resp.Body.Close()

	return c.classify(resp), nil
}

// classify maps the transport-level result to a retry outcome. The credit
// service signals unavailability with 503 and business rejection (not
// enough credit) with other 5xx codes.
func (c *HTTPCreditClient) classify(resp *http.Response) domain.ReservationResult {
	reason := readBody(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return domain.ReservationResult{Outcome: retry.OutcomeSuccess}

	case resp.StatusCode == http.StatusServiceUnavailable:
		return domain.ReservationResult{
			Outcome:    retry.OutcomeTransient,
			Reason:     reason,
			RetryAfter: retryAfterHint(resp),
		}

	default:
		return domain.ReservationResult{
			Outcome: retry.OutcomePermanent,
			Reason:  reason,
		}
	}
}

// retryAfterHint parses an optional Retry-After header, in seconds
func retryAfterHint(resp *http.Response) time.Duration {
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}

	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func readBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	return string(bytes.TrimSpace(data))
}
