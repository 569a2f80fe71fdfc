package mongodb

import (
	"context"
	"regexp"
	"time"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SlotRepository implements domain.SlotRepository using MongoDB
type SlotRepository struct {
	collection *mongo.Collection
}

// NewSlotRepository creates a new SlotRepository
func NewSlotRepository(db *mongo.Database) *SlotRepository {
	collection := db.Collection("slots")

	repo := &SlotRepository{
		collection: collection,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *SlotRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "usage", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "palletLabels", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save saves or updates a slot
func (r *SlotRepository) Save(ctx context.Context, slot *domain.Slot) error {
	slot.UpdatedAt = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"code": slot.Code}
	_, err := r.collection.ReplaceOne(ctx, filter, slot, opts)
	return err
}

// FindByCode retrieves a slot by its code, nil when absent
func (r *SlotRepository) FindByCode(ctx context.Context, code string) (*domain.Slot, error) {
	var slot domain.Slot
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&slot)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// FindFreeStorage retrieves free storage slots ordered by code ascending
func (r *SlotRepository) FindFreeStorage(ctx context.Context) ([]*domain.Slot, error) {
	filter := bson.M{
		"usage":  domain.SlotUsageStorage,
		"status": domain.SlotStatusFree,
	}
	return r.findSorted(ctx, filter)
}

// FindByUsage retrieves slots of a usage type ordered by code ascending
func (r *SlotRepository) FindByUsage(ctx context.Context, usage domain.SlotUsage) ([]*domain.Slot, error) {
	return r.findSorted(ctx, bson.M{"usage": usage})
}

// FindByCodePrefix retrieves slots whose code matches the prefix, ordered by
// code ascending
func (r *SlotRepository) FindByCodePrefix(ctx context.Context, prefix string) ([]*domain.Slot, error) {
	filter := bson.M{"code": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	return r.findSorted(ctx, filter)
}

func (r *SlotRepository) findSorted(ctx context.Context, filter bson.M) ([]*domain.Slot, error) {
	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var slots []*domain.Slot
	if err = cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// Update persists changes with an optimistic version check
func (r *SlotRepository) Update(ctx context.Context, slot *domain.Slot) error {
	slot.UpdatedAt = time.Now().UTC()

	filter := bson.M{"code": slot.Code, "version": slot.Version}
	slot.Version++

	result, err := r.collection.ReplaceOne(ctx, filter, slot)
	if err != nil {
		slot.Version--
		return err
	}
	if result.MatchedCount == 0 {
		slot.Version--
		return domain.ErrVersionConflict
	}
	return nil
}
