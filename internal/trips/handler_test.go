package trips

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripboard/internal/logger"
	"tripboard/pkg/errors"
)

type stubService struct {
	aggregateFn  func(reference string) (*AggregationResult, error)
	byCustomerFn func(customerID string) ([]*AggregationResult, error)
}

func (s *stubService) Aggregate(ctx context.Context, reference string) (*AggregationResult, error) {
	return s.aggregateFn(reference)
}

func (s *stubService) AggregateByCustomer(ctx context.Context, customerID string) ([]*AggregationResult, error) {
	return s.byCustomerFn(customerID)
}

func newTestRouter(service Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(service, logger.NopLogger()).RegisterRoutes(router)
	return router
}

func TestGetBookingOK(t *testing.T) {
	router := newTestRouter(&stubService{
		aggregateFn: func(reference string) (*AggregationResult, error) {
			return &AggregationResult{BookingReference: reference, Status: StatusSuccess}, nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/ABC123", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body AggregationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ABC123", body.BookingReference)
	assert.Equal(t, StatusSuccess, body.Status)
}

func TestGetBookingRejectsMalformedReference(t *testing.T) {
	router := newTestRouter(&stubService{
		aggregateFn: func(reference string) (*AggregationResult, error) {
			t.Fatal("service must not be called for a malformed reference")
			return nil, nil
		},
	})

	for _, reference := range []string{"abc123", "AB12", "ABCDEFGHI", "ABC-12"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/"+reference, nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "reference %q", reference)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "VALIDATION_ERROR", body["error_code"])
	}
}

func TestGetBookingNotFound(t *testing.T) {
	router := newTestRouter(&stubService{
		aggregateFn: func(reference string) (*AggregationResult, error) {
			return nil, errors.ErrNotFound.WithMessage("unknown booking")
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/ZZZ999", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBookingUnavailable(t *testing.T) {
	router := newTestRouter(&stubService{
		aggregateFn: func(reference string) (*AggregationResult, error) {
			return nil, errors.ErrServiceUnavailable.
				WithMessage("booking data temporarily unavailable").
				WithDetail("dependency", "trip")
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/ABC123", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "details")
}

func TestGetCustomerBookings(t *testing.T) {
	router := newTestRouter(&stubService{
		byCustomerFn: func(customerID string) ([]*AggregationResult, error) {
			return []*AggregationResult{
				{BookingReference: "ABC123", Status: StatusSuccess},
				{BookingReference: "GHTW42", Status: StatusDegraded},
			}, nil
		},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/CUST-9/bookings", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body []AggregationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, StatusDegraded, body[1].Status)
}
