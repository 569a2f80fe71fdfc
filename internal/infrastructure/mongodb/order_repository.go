package mongodb

import (
	"context"
	"time"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderRepository implements domain.OrderRepository using MongoDB
type OrderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	collection := db.Collection("orders")

	repo := &OrderRepository{
		collection: collection,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *OrderRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save saves or updates an order
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"number": order.Number}
	_, err := r.collection.ReplaceOne(ctx, filter, order, opts)
	return err
}

// FindByNumber retrieves an order by its transport number, nil when absent
func (r *OrderRepository) FindByNumber(ctx context.Context, number string) (*domain.Order, error) {
	var order domain.Order
	err := r.collection.FindOne(ctx, bson.M{"number": number}).Decode(&order)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Update persists changes with an optimistic version check
func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	order.UpdatedAt = time.Now().UTC()

	filter := bson.M{"number": order.Number, "version": order.Version}
	order.Version++

	result, err := r.collection.ReplaceOne(ctx, filter, order)
	if err != nil {
		order.Version--
		return err
	}
	if result.MatchedCount == 0 {
		order.Version--
		return domain.ErrVersionConflict
	}
	return nil
}
