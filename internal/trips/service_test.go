package trips

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripboard/internal/config"
	"tripboard/internal/constants"
	"tripboard/internal/logger"
	"tripboard/pkg/errors"
	"tripboard/pkg/models"
)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]fakeCacheEntry
}

type fakeCacheEntry struct {
	data     []byte
	cachedAt time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]fakeCacheEntry)}
}

func (c *fakeCache) Get(ctx context.Context, namespace, key string, out interface{}) (time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[namespace+":"+key]
	if !ok {
		return time.Time{}, false, nil
	}
	if err := json.Unmarshal(entry.data, out); err != nil {
		return time.Time{}, false, err
	}
	return entry.cachedAt, true, nil
}

func (c *fakeCache) Put(ctx context.Context, namespace, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[namespace+":"+key] = fakeCacheEntry{data: data, cachedAt: time.Now().UTC()}
	return nil
}

func (c *fakeCache) seed(t *testing.T, namespace, key string, value interface{}, cachedAt time.Time) {
	t.Helper()
	data, err := json.Marshal(value)
	require.NoError(t, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[namespace+":"+key] = fakeCacheEntry{data: data, cachedAt: cachedAt}
}

type fakeTripRepo struct {
	mu           sync.Mutex
	findCalls    int
	refsCalls    int
	findFn       func(reference string) (*Booking, error)
	referencesFn func(customerID string) ([]string, error)
}

func (r *fakeTripRepo) FindByReference(ctx context.Context, reference string) (*Booking, error) {
	r.mu.Lock()
	r.findCalls++
	r.mu.Unlock()
	return r.findFn(reference)
}

func (r *fakeTripRepo) FindReferencesByCustomer(ctx context.Context, customerID string) ([]string, error) {
	r.mu.Lock()
	r.refsCalls++
	r.mu.Unlock()
	if r.referencesFn == nil {
		return nil, errors.ErrNotFound
	}
	return r.referencesFn(customerID)
}

type fakeBaggageRepo struct {
	mu     sync.Mutex
	calls  int
	findFn func(reference string) (*BaggageRecord, error)
}

func (r *fakeBaggageRepo) FindByReference(ctx context.Context, reference string) (*BaggageRecord, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.findFn(reference)
}

func (r *fakeBaggageRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeTicketRepo struct {
	mu     sync.Mutex
	calls  int
	findFn func(reference string, passengerNumber int) (*Ticket, error)
}

func (r *fakeTicketRepo) FindByPassenger(ctx context.Context, reference string, passengerNumber int) (*Ticket, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	return r.findFn(reference, passengerNumber)
}

func (r *fakeTicketRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeProducer struct {
	mu        sync.Mutex
	published []models.Event
}

func (p *fakeProducer) Publish(ctx context.Context, topic string, evt models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, evt)
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func (p *fakeProducer) events() []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Event(nil), p.published...)
}

func transientUnavailable(msg string) error {
	return errors.ErrServiceUnavailable.WithMessage(msg).AsRetryable()
}

func testAggregationConfig() config.AggregationConfig {
	dep := config.DependencyConfig{
		Retry: config.RetryConfig{
			MaxAttempts:     2,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			Multiplier:      2.0,
		},
	}
	return config.AggregationConfig{
		Trip:     dep,
		Baggage:  dep,
		Ticket:   dep,
		Customer: dep,
		DefaultBaggage: config.DefaultBaggageConfig{
			CheckedWeight: 23,
			CarryOnWeight: 7,
			Unit:          "kg",
		},
	}
}

type serviceFixture struct {
	service  Service
	trips    *fakeTripRepo
	baggage  *fakeBaggageRepo
	tickets  *fakeTicketRepo
	cache    *fakeCache
	producer *fakeProducer
}

func newServiceFixture(trips *fakeTripRepo, baggage *fakeBaggageRepo, tickets *fakeTicketRepo) *serviceFixture {
	cache := newFakeCache()
	producer := &fakeProducer{}

	gateways := NewGateways(testAggregationConfig(), GatewayDeps{
		Trips:   trips,
		Baggage: baggage,
		Tickets: tickets,
		Cache:   cache,
		Logger:  logger.NopLogger(),
	})

	return &serviceFixture{
		service:  NewService(gateways, producer, constants.DefaultAggregationTopic, logger.NopLogger()),
		trips:    trips,
		baggage:  baggage,
		tickets:  tickets,
		cache:    cache,
		producer: producer,
	}
}

func sampleBooking(reference string) *Booking {
	return &Booking{
		Reference:  reference,
		CustomerID: "CUST-9",
		CabinClass: "economy",
		Passengers: []Passenger{
			{Number: 1, FirstName: "Ada", LastName: "Lovelace"},
			{Number: 2, FirstName: "Alan", MiddleName: "Mathison", LastName: "Turing"},
		},
		Flights: []Flight{
			{
				Number:        "TB101",
				Origin:        "AMS",
				Destination:   "LIS",
				DepartureTime: time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC),
				ArrivalTime:   time.Date(2026, 9, 1, 12, 15, 0, 0, time.UTC),
			},
		},
	}
}

func sampleBaggage(reference string) *BaggageRecord {
	one := 1
	return &BaggageRecord{
		BookingReference: reference,
		Allowances: []BaggageAllowance{
			{PassengerNumber: &one, CheckedWeight: 32, CarryOnWeight: 10, Unit: "kg"},
			{CheckedWeight: 20, CarryOnWeight: 8, Unit: "kg"},
		},
	}
}

func TestAggregateAllBackendsHealthy(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{findFn: func(reference string) (*Booking, error) {
			return sampleBooking(reference), nil
		}},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			return sampleBaggage(reference), nil
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			return &Ticket{
				BookingReference: reference,
				PassengerNumber:  passengerNumber,
				TicketNumber:     "074-2100000001",
				URL:              "https://tickets.example.com/074-2100000001",
			}, nil
		}},
	)

	result, err := fx.service.Aggregate(context.Background(), "ABC123")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.False(t, result.FromCache)
	assert.Empty(t, result.PNRFallbackNotices)
	require.Len(t, result.Passengers, 2)

	first := result.Passengers[0]
	assert.Equal(t, "Ada Lovelace", first.FullName)
	require.NotNil(t, first.TicketURL)
	assert.Equal(t, 32, first.CheckedWeight)
	assert.Empty(t, first.FallbackNotices)

	second := result.Passengers[1]
	assert.Equal(t, "Alan Mathison Turing", second.FullName)
	assert.Equal(t, 20, second.CheckedWeight, "passenger without specific allowance gets the booking-wide entry")

	require.Len(t, result.Flights, 1)
	assert.Empty(t, result.Flights[0].FallbackNotices)
}

func TestAggregateMissingTicketIsAbsenceNotFailure(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{findFn: func(reference string) (*Booking, error) {
			return sampleBooking(reference), nil
		}},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			return sampleBaggage(reference), nil
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			if passengerNumber == 1 {
				return nil, errors.ErrNotFound.WithMessage("no ticket issued")
			}
			return &Ticket{
				BookingReference: reference,
				PassengerNumber:  passengerNumber,
				URL:              "https://tickets.example.com/074-2100000002",
			}, nil
		}},
	)

	result, err := fx.service.Aggregate(context.Background(), "GHTW42")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, result.Passengers, 2)
	assert.Nil(t, result.Passengers[0].TicketURL)
	assert.Empty(t, result.Passengers[0].FallbackNotices)
	require.NotNil(t, result.Passengers[1].TicketURL)
}

func TestAggregateBookingNotFound(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{findFn: func(reference string) (*Booking, error) {
			return nil, errors.ErrNotFound.WithMessage("unknown booking")
		}},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			return sampleBaggage(reference), nil
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			return nil, errors.ErrNotFound
		}},
	)

	result, err := fx.service.Aggregate(context.Background(), "ZZZ999")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsNotFound(err))
	assert.Zero(t, fx.baggage.callCount(), "downstream fetches never run without a booking")
	assert.Zero(t, fx.tickets.callCount())
}

func TestAggregateTripDownColdCache(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{findFn: func(reference string) (*Booking, error) {
			return nil, transientUnavailable("trip backend refused connection")
		}},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			return sampleBaggage(reference), nil
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			return nil, errors.ErrNotFound
		}},
	)

	result, err := fx.service.Aggregate(context.Background(), "ABC123")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsUnavailable(err))

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Details, "circuit_breaker")

	assert.Zero(t, fx.baggage.callCount(), "trip failure must short-circuit the fan-out")
	assert.Zero(t, fx.tickets.callCount())
}

func TestAggregateTripDownWarmCacheDegrades(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{findFn: func(reference string) (*Booking, error) {
			return nil, transientUnavailable("trip backend refused connection")
		}},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			return sampleBaggage(reference), nil
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			return nil, errors.ErrNotFound
		}},
	)

	cachedAt := time.Date(2026, 8, 29, 18, 0, 0, 0, time.UTC)
	fx.cache.seed(t, constants.CacheNamespaceTrip, "ABC123", sampleBooking("ABC123"), cachedAt)

	result, err := fx.service.Aggregate(context.Background(), "ABC123")
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, result.Status)
	assert.True(t, result.FromCache)
	require.NotNil(t, result.CacheTimestamp)
	assert.Equal(t, cachedAt, result.CacheTimestamp.UTC())
	assert.NotEmpty(t, result.PNRFallbackNotices)

	require.Len(t, result.Flights, 1)
	assert.NotEmpty(t, result.Flights[0].FallbackNotices)
}

func TestAggregateBaggageDownUsesDefaultAllowance(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{findFn: func(reference string) (*Booking, error) {
			return sampleBooking(reference), nil
		}},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			return nil, transientUnavailable("baggage backend timed out")
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			return nil, errors.ErrNotFound
		}},
	)

	result, err := fx.service.Aggregate(context.Background(), "ABC123")
	require.NoError(t, err)

	assert.Equal(t, StatusDegraded, result.Status)
	assert.False(t, result.FromCache)
	require.Len(t, result.Passengers, 2)

	for _, passenger := range result.Passengers {
		assert.Equal(t, 23, passenger.CheckedWeight)
		assert.Equal(t, 7, passenger.CarryOnWeight)
		assert.Equal(t, "kg", passenger.BaggageUnit)
		assert.Contains(t, passenger.FallbackNotices,
			"Using default baggage allowance, baggage service unavailable")
	}
}

func TestAggregateTicketDownStaysSuccess(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{findFn: func(reference string) (*Booking, error) {
			return sampleBooking(reference), nil
		}},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			return sampleBaggage(reference), nil
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			return nil, transientUnavailable("ticket backend timed out")
		}},
	)

	result, err := fx.service.Aggregate(context.Background(), "ABC123")
	require.NoError(t, err)

	// A ticket outage degrades individual passengers, not the aggregate.
	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, result.Passengers, 2)

	for _, passenger := range result.Passengers {
		assert.Nil(t, passenger.TicketURL)
		assert.Contains(t, passenger.FallbackNotices, "Ticket service unavailable")
	}
}

func TestAggregatePublishesCompletionEvent(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{findFn: func(reference string) (*Booking, error) {
			return sampleBooking(reference), nil
		}},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			return sampleBaggage(reference), nil
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			return nil, errors.ErrNotFound
		}},
	)

	_, err := fx.service.Aggregate(context.Background(), "ABC123")
	require.NoError(t, err)

	published := fx.producer.events()
	require.Len(t, published, 1)
	assert.Equal(t, models.EventTypeAggregationCompleted, published[0].Type)
}

func TestAggregateByCustomer(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{
			findFn: func(reference string) (*Booking, error) {
				return sampleBooking(reference), nil
			},
			referencesFn: func(customerID string) ([]string, error) {
				return []string{"ABC123", "GHTW42"}, nil
			},
		},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			if reference == "GHTW42" {
				return nil, transientUnavailable("baggage backend timed out")
			}
			return sampleBaggage(reference), nil
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			return nil, errors.ErrNotFound
		}},
	)

	results, err := fx.service.AggregateByCustomer(context.Background(), "CUST-9")
	require.NoError(t, err)
	require.Len(t, results, 2)

	byRef := make(map[string]Status, len(results))
	for _, result := range results {
		byRef[result.BookingReference] = result.Status
	}
	assert.Equal(t, StatusSuccess, byRef["ABC123"])
	assert.Equal(t, StatusDegraded, byRef["GHTW42"], "each unit is classified independently")
}

func TestAggregateByCustomerSkipsFailedUnits(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{
			findFn: func(reference string) (*Booking, error) {
				if reference == "DOWN01" {
					return nil, transientUnavailable("trip backend refused connection")
				}
				return sampleBooking(reference), nil
			},
			referencesFn: func(customerID string) ([]string, error) {
				return []string{"ABC123", "DOWN01"}, nil
			},
		},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			return sampleBaggage(reference), nil
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			return nil, errors.ErrNotFound
		}},
	)

	results, err := fx.service.AggregateByCustomer(context.Background(), "CUST-9")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ABC123", results[0].BookingReference)
}

func TestAggregateByCustomerNoBookings(t *testing.T) {
	fx := newServiceFixture(
		&fakeTripRepo{
			findFn: func(reference string) (*Booking, error) {
				return sampleBooking(reference), nil
			},
			referencesFn: func(customerID string) ([]string, error) {
				return []string{}, nil
			},
		},
		&fakeBaggageRepo{findFn: func(reference string) (*BaggageRecord, error) {
			return sampleBaggage(reference), nil
		}},
		&fakeTicketRepo{findFn: func(reference string, passengerNumber int) (*Ticket, error) {
			return nil, errors.ErrNotFound
		}},
	)

	results, err := fx.service.AggregateByCustomer(context.Background(), "CUST-0")
	require.NoError(t, err)
	assert.Empty(t, results)
}
