package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultAggregationTopic = "aggregation_events"
	DefaultRetryTopic       = "dependency_retry_events"
)

const (
	DefaultMongoDBName = "tripboard"

	CollectionBookings = "bookings"
	CollectionBaggage  = "baggage"
	CollectionTickets  = "tickets"
)

const (
	CacheNamespaceTrip         = "trip"
	CacheNamespaceBaggage      = "baggage"
	CacheNamespaceTicket       = "ticket"
	CacheNamespaceCustomerRefs = "customer-refs"
)

const (
	DependencyTrip     = "trip"
	DependencyBaggage  = "baggage"
	DependencyTicket   = "ticket"
	DependencyCustomer = "customer"
)

// Economy-class figures used when the baggage backend cannot be reached.
const (
	DefaultCheckedBaggageWeight = 23
	DefaultCabinBaggageWeight   = 7
	DefaultBaggageUnit          = "kg"
)

const (
	ShutdownTimeout = 5 * time.Second
	PublishTimeout  = 3 * time.Second
)
