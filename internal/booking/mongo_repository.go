package booking

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository stores bookings, overrides and the roster in a remote
// document database. It fills the same role Firestore style stores fill for
// browser calendars: documents in, documents out, change notification via
// the collection's change stream.
type MongoRepository struct {
	bookings  *mongo.Collection
	overrides *mongo.Collection
	lectors   *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		bookings:  db.Collection("bookings"),
		overrides: db.Collection("dayOverrides"),
		lectors:   db.Collection("lectors"),
	}
}

func (r *MongoRepository) ListByDate(ctx context.Context, date string) ([]Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}, {Key: "slotIndex", Value: 1}})
	cur, err := r.bookings.Find(ctx, bson.M{"date": date}, opts)
	if err != nil {
		return nil, fmt.Errorf("find bookings for %s: %w", date, err)
	}
	var result []Booking
	if err := cur.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *MongoRepository) ListRange(ctx context.Context, from, to string) ([]Booking, error) {
	filter := bson.M{"date": bson.M{"$gte": from, "$lte": to}}
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "startTime", Value: 1},
		{Key: "slotIndex", Value: 1},
	})
	cur, err := r.bookings.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find bookings %s..%s: %w", from, to, err)
	}
	var result []Booking
	if err := cur.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	var b Booking
	err := r.bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *MongoRepository) Upsert(ctx context.Context, b Booking) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.bookings.ReplaceOne(ctx, bson.M{"_id": b.ID}, b, opts)
	if err != nil {
		return fmt.Errorf("upsert booking: %w", err)
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.bookings.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}

type overrideDoc struct {
	Date    string `bson:"_id"`
	Weekday int    `bson:"weekday"`
}

func (r *MongoRepository) All(ctx context.Context) (map[string]int, error) {
	cur, err := r.overrides.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find day overrides: %w", err)
	}
	var docs []overrideDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	overrides := make(map[string]int, len(docs))
	for _, d := range docs {
		overrides[d.Date] = d.Weekday
	}
	return overrides, nil
}

func (r *MongoRepository) Put(ctx context.Context, date string, weekday int) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.overrides.ReplaceOne(ctx, bson.M{"_id": date}, overrideDoc{Date: date, Weekday: weekday}, opts)
	if err != nil {
		return fmt.Errorf("put day override: %w", err)
	}
	return nil
}

func (r *MongoRepository) Remove(ctx context.Context, date string) error {
	_, err := r.overrides.DeleteOne(ctx, bson.M{"_id": date})
	if err != nil {
		return fmt.Errorf("remove day override: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetLectorByID(ctx context.Context, id string) (*Lector, error) {
	var l Lector
	err := r.lectors.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrLectorNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *MongoRepository) ListLectors(ctx context.Context) ([]Lector, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := r.lectors.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find lectors: %w", err)
	}
	var result []Lector
	if err := cur.All(ctx, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UpsertLector writes a roster entry; used by migration.
func (r *MongoRepository) UpsertLector(ctx context.Context, l Lector) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.lectors.ReplaceOne(ctx, bson.M{"_id": l.ID}, l, opts)
	if err != nil {
		return fmt.Errorf("upsert lector: %w", err)
	}
	return nil
}

// WatchBookings tails the bookings change stream and invokes onChange with
// the date of every inserted, replaced or deleted document until ctx ends.
// Deletes carry no document, so onChange receives an empty date for them and
// callers should treat it as "anything may have changed".
func (r *MongoRepository) WatchBookings(ctx context.Context, onChange func(date string)) error {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := r.bookings.Watch(ctx, mongo.Pipeline{}, opts)
	if err != nil {
		return fmt.Errorf("open bookings change stream: %w", err)
	}
	defer stream.Close(ctx)

	for stream.Next(ctx) {
		var ev struct {
			FullDocument Booking `bson:"fullDocument"`
		}
		if err := stream.Decode(&ev); err != nil {
			continue
		}
		onChange(ev.FullDocument.Date)
	}
	if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bookings change stream: %w", err)
	}
	return nil
}
