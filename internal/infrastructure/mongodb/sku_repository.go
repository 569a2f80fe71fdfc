package mongodb

import (
	"context"
	"time"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SKURepository implements domain.SKURepository using MongoDB
type SKURepository struct {
	collection *mongo.Collection
}

// NewSKURepository creates a new SKURepository
func NewSKURepository(db *mongo.Database) *SKURepository {
	collection := db.Collection("skus")

	repo := &SKURepository{
		collection: collection,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *SKURepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save saves or updates a SKU
func (r *SKURepository) Save(ctx context.Context, sku *domain.SKU) error {
	sku.UpdatedAt = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"code": sku.Code}
	_, err := r.collection.ReplaceOne(ctx, filter, sku, opts)
	return err
}

// FindByCode retrieves a SKU by its code, nil when absent
func (r *SKURepository) FindByCode(ctx context.Context, code string) (*domain.SKU, error) {
	var sku domain.SKU
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&sku)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sku, nil
}

// Update persists changes with an optimistic version check
func (r *SKURepository) Update(ctx context.Context, sku *domain.SKU) error {
	sku.UpdatedAt = time.Now().UTC()

	filter := bson.M{"code": sku.Code, "version": sku.Version}
	sku.Version++

	result, err := r.collection.ReplaceOne(ctx, filter, sku)
	if err != nil {
		sku.Version--
		return err
	}
	if result.MatchedCount == 0 {
		sku.Version--
		return domain.ErrVersionConflict
	}
	return nil
}
