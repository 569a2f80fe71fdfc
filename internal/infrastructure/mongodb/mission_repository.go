package mongodb

import (
	"context"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MissionRepository implements domain.MissionRepository using MongoDB
type MissionRepository struct {
	collection *mongo.Collection
}

// NewMissionRepository creates a new MissionRepository
func NewMissionRepository(db *mongo.Database) *MissionRepository {
	collection := db.Collection("missions")

	repo := &MissionRepository{
		collection: collection,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *MissionRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "missionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "missionId", Value: 1}}},
		{Keys: bson.D{{Key: "operatorId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "orderNumber", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save saves or updates a mission
func (r *MissionRepository) Save(ctx context.Context, mission *domain.Mission) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"missionId": mission.MissionID}
	_, err := r.collection.ReplaceOne(ctx, filter, mission, opts)
	return err
}

// FindByID retrieves a mission by its id, nil when absent
func (r *MissionRepository) FindByID(ctx context.Context, missionID string) (*domain.Mission, error) {
	return r.findOne(ctx, bson.M{"missionId": missionID}, nil)
}

// FindOldestPending retrieves the head of the pending queue, FIFO by creation
// time with mission id as the tie break; nil when the queue is empty
func (r *MissionRepository) FindOldestPending(ctx context.Context) (*domain.Mission, error) {
	filter := bson.M{"status": domain.MissionStatusPending}
	opts := options.FindOne().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "missionId", Value: 1},
	})
	return r.findOne(ctx, filter, opts)
}

// FindActiveByOperator retrieves the operator's assigned or in-progress
// mission, nil when the operator is idle
func (r *MissionRepository) FindActiveByOperator(ctx context.Context, operatorID string) (*domain.Mission, error) {
	filter := bson.M{
		"operatorId": operatorID,
		"status": bson.M{"$in": []domain.MissionStatus{
			domain.MissionStatusAssigned,
			domain.MissionStatusInProgress,
		}},
	}
	return r.findOne(ctx, filter, nil)
}

// FindByOrder retrieves all missions belonging to an order
func (r *MissionRepository) FindByOrder(ctx context.Context, orderNumber string) ([]*domain.Mission, error) {
	filter := bson.M{"orderNumber": orderNumber}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, filter, opts)
}

// FindByStatus retrieves missions by status in FIFO order
func (r *MissionRepository) FindByStatus(ctx context.Context, status domain.MissionStatus, pagination domain.Pagination) ([]*domain.Mission, error) {
	filter := bson.M{"status": status}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "missionId", Value: 1}}).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())
	return r.find(ctx, filter, opts)
}

func (r *MissionRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.Mission, error) {
	var mission domain.Mission
	var err error
	if opts != nil {
		err = r.collection.FindOne(ctx, filter, opts).Decode(&mission)
	} else {
		err = r.collection.FindOne(ctx, filter).Decode(&mission)
	}
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mission, nil
}

func (r *MissionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Mission, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var missions []*domain.Mission
	if err = cursor.All(ctx, &missions); err != nil {
		return nil, err
	}
	return missions, nil
}

// Update persists changes with an optimistic version check
func (r *MissionRepository) Update(ctx context.Context, mission *domain.Mission) error {
	filter := bson.M{"missionId": mission.MissionID, "version": mission.Version}
	mission.Version++

	result, err := r.collection.ReplaceOne(ctx, filter, mission)
	if err != nil {
		mission.Version--
		return err
	}
	if result.MatchedCount == 0 {
		mission.Version--
		return domain.ErrVersionConflict
	}
	return nil
}

// Delete removes a mission
func (r *MissionRepository) Delete(ctx context.Context, missionID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"missionId": missionID})
	return err
}
