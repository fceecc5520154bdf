package trips

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"tripboard/internal/constants"
	"tripboard/pkg/errors"
)

// Repositories are the raw store reads. They surface exactly two error
// classes: a typed not-found for missing documents and a retryable
// unavailability error for anything infrastructural. The gateways decide
// what either means.

type TripRepository interface {
	FindByReference(ctx context.Context, reference string) (*Booking, error)
	FindReferencesByCustomer(ctx context.Context, customerID string) ([]string, error)
}

type BaggageRepository interface {
	FindByReference(ctx context.Context, reference string) (*BaggageRecord, error)
}

type TicketRepository interface {
	FindByPassenger(ctx context.Context, reference string, passengerNumber int) (*Ticket, error)
}

type MongoTripRepository struct {
	collection *mongo.Collection
}

func NewTripRepository(db *mongo.Database) *MongoTripRepository {
	return &MongoTripRepository{
		collection: db.Collection(constants.CollectionBookings),
	}
}

func (r *MongoTripRepository) FindByReference(ctx context.Context, reference string) (*Booking, error) {
	var booking Booking
	err := r.collection.FindOne(ctx, bson.M{"_id": reference}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, errors.ErrNotFound.WithMessage("booking not found").WithDetail("booking_reference", reference)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrServiceUnavailable).AsRetryable()
	}
	return &booking, nil
}

func (r *MongoTripRepository) FindReferencesByCustomer(ctx context.Context, customerID string) ([]string, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrServiceUnavailable).AsRetryable()
	}
	defer cursor.Close(ctx)

	references := make([]string, 0)
	for cursor.Next(ctx) {
		var doc struct {
			Reference string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, errors.ErrServiceUnavailable).AsRetryable()
		}
		references = append(references, doc.Reference)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrServiceUnavailable).AsRetryable()
	}

	// An empty match list is a valid result, not an error.
	return references, nil
}

type MongoBaggageRepository struct {
	collection *mongo.Collection
}

func NewBaggageRepository(db *mongo.Database) *MongoBaggageRepository {
	return &MongoBaggageRepository{
		collection: db.Collection(constants.CollectionBaggage),
	}
}

func (r *MongoBaggageRepository) FindByReference(ctx context.Context, reference string) (*BaggageRecord, error) {
	var record BaggageRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": reference}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, errors.ErrNotFound.WithMessage("baggage record not found").WithDetail("booking_reference", reference)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrServiceUnavailable).AsRetryable()
	}
	return &record, nil
}

type MongoTicketRepository struct {
	collection *mongo.Collection
}

func NewTicketRepository(db *mongo.Database) *MongoTicketRepository {
	return &MongoTicketRepository{
		collection: db.Collection(constants.CollectionTickets),
	}
}

func (r *MongoTicketRepository) FindByPassenger(ctx context.Context, reference string, passengerNumber int) (*Ticket, error) {
	filter := bson.M{
		"booking_reference": reference,
		"passenger_number":  passengerNumber,
	}

	var ticket Ticket
	err := r.collection.FindOne(ctx, filter).Decode(&ticket)
	if err == mongo.ErrNoDocuments {
		return nil, errors.ErrNotFound.WithMessage("ticket not found").
			WithDetail("booking_reference", reference).
			WithDetail("passenger_number", passengerNumber)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrServiceUnavailable).AsRetryable()
	}
	return &ticket, nil
}
