package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/swiftparcel/delivery-platform/internal/core/domain"
	"github.com/swiftparcel/delivery-platform/internal/core/ports"
)

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	db *mongo.Database
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.EventRepository {
	return &EventRepository{db: db}
}

// UpdateOrderStatus atomically sets the order status and appends a history entry.
func (r *EventRepository) UpdateOrderStatus(
	ctx context.Context,
	orderNumber string,
	status domain.OrderStatus,
	ts time.Time,
	notes string,
	location *domain.Coordinates,
) error {
	historyEntry := bson.M{
		"status":    string(status),
		"timestamp": ts.UTC(),
		"notes":     notes,
	}

	update := bson.M{
		"$set":  bson.M{"status": string(status)},
		"$push": bson.M{"status_history": historyEntry},
	}
	if location != nil {
		update["$set"].(bson.M)["last_location"] = bson.M{"lat": location.Lat, "lng": location.Lng}
	}

	_, err := r.db.Collection(ordersCollection).UpdateOne(ctx, bson.M{"order_number": orderNumber}, update)
	return err
}

// UpdateOrderLocation refreshes the order's last known location. No history
// entry: pings arrive far too often to be worth an audit line on the order.
func (r *EventRepository) UpdateOrderLocation(ctx context.Context, orderNumber string, ts time.Time, location domain.Coordinates) error {
	update := bson.M{"$set": bson.M{
		"last_location":    bson.M{"lat": location.Lat, "lng": location.Lng},
		"last_location_at": ts.UTC(),
	}}

	_, err := r.db.Collection(ordersCollection).UpdateOne(ctx, bson.M{"order_number": orderNumber}, update)
	return err
}

// InsertEvent persists a courier event to the order_events audit collection.
// Location pings carry no status and are stored without one.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.CourierEvent) error {
	doc := bson.M{
		"order_number": event.OrderNumber,
		"courier_id":   event.CourierID,
		"timestamp":    event.Timestamp.UTC(),
		"processed_at": time.Now().UTC(),
	}
	if event.Status != "" {
		doc["status"] = string(event.Status)
	}
	if event.Location != nil {
		doc["location"] = bson.M{"lat": event.Location.Lat, "lng": event.Location.Lng}
	}

	_, err := r.db.Collection("order_events").InsertOne(ctx, doc)
	return err
}
