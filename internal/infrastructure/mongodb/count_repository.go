package mongodb

import (
	"context"

	"github.com/wms-platform/warehouse-engine/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CountRepository implements domain.CountRepository using MongoDB
type CountRepository struct {
	sessions *mongo.Collection
	items    *mongo.Collection
}

// NewCountRepository creates a new CountRepository
func NewCountRepository(db *mongo.Database) *CountRepository {
	repo := &CountRepository{
		sessions: db.Collection("count_sessions"),
		items:    db.Collection("count_items"),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *CountRepository) ensureIndexes(ctx context.Context) {
	sessionIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	r.sessions.Indexes().CreateMany(ctx, sessionIndexes)

	itemIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "recordedAt", Value: 1}}},
		{Keys: bson.D{{Key: "sessionId", Value: 1}, {Key: "slotCode", Value: 1}}},
	}
	r.items.Indexes().CreateMany(ctx, itemIndexes)
}

// SaveSession saves or updates a session
func (r *CountRepository) SaveSession(ctx context.Context, session *domain.CountSession) error {
	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"sessionId": session.SessionID}
	_, err := r.sessions.ReplaceOne(ctx, filter, session, opts)
	return err
}

// FindSession retrieves a session by its id, nil when absent
func (r *CountRepository) FindSession(ctx context.Context, sessionID string) (*domain.CountSession, error) {
	var session domain.CountSession
	err := r.sessions.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSession persists changes with an optimistic version check
func (r *CountRepository) UpdateSession(ctx context.Context, session *domain.CountSession) error {
	filter := bson.M{"sessionId": session.SessionID, "version": session.Version}
	session.Version++

	result, err := r.sessions.ReplaceOne(ctx, filter, session)
	if err != nil {
		session.Version--
		return err
	}
	if result.MatchedCount == 0 {
		session.Version--
		return domain.ErrVersionConflict
	}
	return nil
}

// SaveItem appends a count item
func (r *CountRepository) SaveItem(ctx context.Context, item *domain.CountItem) error {
	_, err := r.items.InsertOne(ctx, item)
	return err
}

// FindItems retrieves a session's items in chronological order
func (r *CountRepository) FindItems(ctx context.Context, sessionID string) ([]*domain.CountItem, error) {
	filter := bson.M{"sessionId": sessionID}
	opts := options.Find().SetSort(bson.D{
		{Key: "recordedAt", Value: 1},
		{Key: "_id", Value: 1},
	})

	cursor, err := r.items.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*domain.CountItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindLastItem retrieves the chronologically last item, nil when none
func (r *CountRepository) FindLastItem(ctx context.Context, sessionID string) (*domain.CountItem, error) {
	filter := bson.M{"sessionId": sessionID}
	opts := options.FindOne().SetSort(bson.D{
		{Key: "recordedAt", Value: -1},
		{Key: "_id", Value: -1},
	})

	var item domain.CountItem
	err := r.items.FindOne(ctx, filter, opts).Decode(&item)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes a single count item
func (r *CountRepository) DeleteItem(ctx context.Context, item *domain.CountItem) error {
	_, err := r.items.DeleteOne(ctx, bson.M{"_id": item.ID})
	return err
}
