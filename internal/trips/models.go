package trips

import (
	"strings"
	"time"
)

type Status string

const (
	StatusSuccess  Status = "SUCCESS"
	StatusDegraded Status = "DEGRADED"
)

// Booking is the trip record keyed by booking reference (PNR). Immutable
// once fetched; the cache provenance fields are populated only when the
// record was served from the fallback cache.
type Booking struct {
	Reference  string      `bson:"_id" json:"reference"`
	CustomerID string      `bson:"customer_id" json:"customer_id"`
	CabinClass string      `bson:"cabin_class" json:"cabin_class"`
	Passengers []Passenger `bson:"passengers" json:"passengers"`
	Flights    []Flight    `bson:"flights" json:"flights"`

	FromCache       bool       `bson:"-" json:"from_cache,omitempty"`
	CachedAt        *time.Time `bson:"-" json:"cached_at,omitempty"`
	FallbackNotices []string   `bson:"-" json:"fallback_notices,omitempty"`
}

// Passenger numbers are unique within a booking and join baggage and
// ticket data onto the passenger.
type Passenger struct {
	Number     int    `bson:"number" json:"number"`
	FirstName  string `bson:"first_name" json:"first_name"`
	MiddleName string `bson:"middle_name,omitempty" json:"middle_name,omitempty"`
	LastName   string `bson:"last_name" json:"last_name"`
}

// FullName joins first, optional middle, and last name.
func (p Passenger) FullName() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{p.FirstName, p.MiddleName, p.LastName} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

type Flight struct {
	Number        string    `bson:"number" json:"number"`
	Origin        string    `bson:"origin" json:"origin"`
	Destination   string    `bson:"destination" json:"destination"`
	DepartureTime time.Time `bson:"departure_time" json:"departure_time"`
	ArrivalTime   time.Time `bson:"arrival_time" json:"arrival_time"`
}

// BaggageRecord holds the allowances stored for one booking. An allowance
// without a passenger number is the booking-wide default entry.
type BaggageRecord struct {
	BookingReference string             `bson:"_id" json:"booking_reference"`
	Allowances       []BaggageAllowance `bson:"allowances" json:"allowances"`

	FromDefault     bool     `bson:"-" json:"from_default,omitempty"`
	FallbackNotices []string `bson:"-" json:"fallback_notices,omitempty"`
}

type BaggageAllowance struct {
	PassengerNumber *int   `bson:"passenger_number,omitempty" json:"passenger_number,omitempty"`
	CheckedWeight   int    `bson:"checked_weight" json:"checked_weight"`
	CarryOnWeight   int    `bson:"carry_on_weight" json:"carry_on_weight"`
	Unit            string `bson:"unit" json:"unit"`
}

// ForPassenger resolves the allowance for a passenger number, falling back
// to the booking-wide default entry when no specific entry matches.
func (r *BaggageRecord) ForPassenger(number int) (BaggageAllowance, bool) {
	if r == nil {
		return BaggageAllowance{}, false
	}

	var defaultEntry *BaggageAllowance
	for i := range r.Allowances {
		a := &r.Allowances[i]
		if a.PassengerNumber == nil {
			if defaultEntry == nil {
				defaultEntry = a
			}
			continue
		}
		if *a.PassengerNumber == number {
			return *a, true
		}
	}

	if defaultEntry != nil {
		return *defaultEntry, true
	}
	return BaggageAllowance{}, false
}

// Ticket may legitimately not exist for a passenger; absence is a business
// condition. A placeholder ticket produced by fallback carries notices and
// no URL.
type Ticket struct {
	BookingReference string `bson:"booking_reference" json:"booking_reference"`
	PassengerNumber  int    `bson:"passenger_number" json:"passenger_number"`
	TicketNumber     string `bson:"ticket_number,omitempty" json:"ticket_number,omitempty"`
	URL              string `bson:"url,omitempty" json:"url,omitempty"`

	FallbackNotices []string `bson:"-" json:"fallback_notices,omitempty"`
}

// AggregationResult is the merged external view of one booking.
type AggregationResult struct {
	BookingReference   string          `json:"booking_reference"`
	CabinClass         string          `json:"cabin_class"`
	Status             Status          `json:"status"`
	FromCache          bool            `json:"from_cache"`
	CacheTimestamp     *time.Time      `json:"cache_timestamp,omitempty"`
	PNRFallbackNotices []string        `json:"pnr_fallback_notices,omitempty"`
	Passengers         []PassengerView `json:"passengers"`
	Flights            []FlightView    `json:"flights"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

type PassengerView struct {
	Number          int      `json:"number"`
	FullName        string   `json:"full_name"`
	TicketURL       *string  `json:"ticket_url"`
	CheckedWeight   int      `json:"checked_weight"`
	CarryOnWeight   int      `json:"carry_on_weight"`
	BaggageUnit     string   `json:"baggage_unit"`
	FallbackNotices []string `json:"fallback_notices,omitempty"`
}

type FlightView struct {
	Number          string    `json:"number"`
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	DepartureTime   time.Time `json:"departure_time"`
	ArrivalTime     time.Time `json:"arrival_time"`
	FallbackNotices []string  `json:"fallback_notices,omitempty"`
}
