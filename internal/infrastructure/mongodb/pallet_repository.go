package mongodb

import (
	"context"
	"time"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PalletRepository implements domain.PalletRepository using MongoDB
type PalletRepository struct {
	collection *mongo.Collection
}

// NewPalletRepository creates a new PalletRepository
func NewPalletRepository(db *mongo.Database) *PalletRepository {
	collection := db.Collection("pallets")

	repo := &PalletRepository{
		collection: collection,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *PalletRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "label", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "skuCode", Value: 1}, {Key: "status", Value: 1}, {Key: "quantity", Value: 1}}},
		{Keys: bson.D{{Key: "slotCode", Value: 1}}},
		{Keys: bson.D{{Key: "receiptNumber", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save saves or updates a pallet
func (r *PalletRepository) Save(ctx context.Context, pallet *domain.Pallet) error {
	pallet.UpdatedAt = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"label": pallet.Label}
	_, err := r.collection.ReplaceOne(ctx, filter, pallet, opts)
	return err
}

// FindByLabel retrieves a pallet by its label, nil when absent
func (r *PalletRepository) FindByLabel(ctx context.Context, label string) (*domain.Pallet, error) {
	var pallet domain.Pallet
	err := r.collection.FindOne(ctx, bson.M{"label": label}).Decode(&pallet)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pallet, nil
}

// FindStoredBySKU retrieves stored pallets of a SKU, smallest quantity first
// with creation time as the tie break
func (r *PalletRepository) FindStoredBySKU(ctx context.Context, skuCode, lotCode string) ([]*domain.Pallet, error) {
	filter := bson.M{
		"skuCode": skuCode,
		"status":  domain.PalletStatusStored,
	}
	if lotCode != "" {
		filter["lotCode"] = lotCode
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "quantity", Value: 1},
		{Key: "createdAt", Value: 1},
	})
	return r.find(ctx, filter, opts)
}

// FindBySlot retrieves the pallets currently occupying a slot
func (r *PalletRepository) FindBySlot(ctx context.Context, slotCode string) ([]*domain.Pallet, error) {
	opts := options.Find().SetSort(bson.D{{Key: "label", Value: 1}})
	return r.find(ctx, bson.M{"slotCode": slotCode}, opts)
}

func (r *PalletRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Pallet, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pallets []*domain.Pallet
	if err = cursor.All(ctx, &pallets); err != nil {
		return nil, err
	}
	return pallets, nil
}

// Update persists changes with an optimistic version check
func (r *PalletRepository) Update(ctx context.Context, pallet *domain.Pallet) error {
	pallet.UpdatedAt = time.Now().UTC()

	filter := bson.M{"label": pallet.Label, "version": pallet.Version}
	pallet.Version++

	result, err := r.collection.ReplaceOne(ctx, filter, pallet)
	if err != nil {
		pallet.Version--
		return err
	}
	if result.MatchedCount == 0 {
		pallet.Version--
		return domain.ErrVersionConflict
	}
	return nil
}
