package mongodb

import (
	"context"
	"fmt"
	"time"

	"studio_server/core/domain"

	"github.com/goccy/go-json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// =============================================================================
// MongoDB Queue Adapter
// =============================================================================

const (
	collectionQueueItems   = "studio_queue_items"
	collectionQueueBatches = "studio_queue_batches"
)

// QueueAdapter implements out.QueueStore using MongoDB. The queue service
// keeps authoritative state in memory; these documents are the durable
// history and the restart recovery source.
type QueueAdapter struct {
	db      *mongo.Database
	items   *mongo.Collection
	batches *mongo.Collection
}

// NewQueueAdapter creates a new MongoDB queue adapter.
func NewQueueAdapter(db *mongo.Database) *QueueAdapter {
	return &QueueAdapter{
		db:      db,
		items:   db.Collection(collectionQueueItems),
		batches: db.Collection(collectionQueueBatches),
	}
}

// EnsureIndexes creates necessary indexes for both collections.
func (a *QueueAdapter) EnsureIndexes(ctx context.Context) error {
	itemIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "batch_id", Value: 1}},
		},
	}
	if _, err := a.items.Indexes().CreateMany(ctx, itemIndexes); err != nil {
		return err
	}

	batchIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}
	_, err := a.batches.Indexes().CreateMany(ctx, batchIndexes)
	return err
}

// =============================================================================
// Document Models
// =============================================================================

type queueItemDocument struct {
	ID        string    `bson:"id"`
	UserID    string    `bson:"user_id"`
	BatchID   string    `bson:"batch_id,omitempty"`
	Status    string    `bson:"status"`
	Priority  int       `bson:"priority"`
	Payload   []byte    `bson:"payload"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toQueueItemDocument(item *domain.QueueItem) (*queueItemDocument, error) {
	payload, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to encode queue item: %w", err)
	}
	return &queueItemDocument{
		ID:        item.ID,
		UserID:    item.UserID,
		BatchID:   item.BatchID,
		Status:    string(item.Status),
		Priority:  int(item.Priority),
		Payload:   payload,
		CreatedAt: item.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (d *queueItemDocument) toEntity() (*domain.QueueItem, error) {
	var item domain.QueueItem
	if err := json.Unmarshal(d.Payload, &item); err != nil {
		return nil, fmt.Errorf("failed to decode queue item %s: %w", d.ID, err)
	}
	return &item, nil
}

type batchDocument struct {
	ID        string    `bson:"id"`
	UserID    string    `bson:"user_id"`
	Payload   []byte    `bson:"payload"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toBatchDocument(batch *domain.GenerationBatch) (*batchDocument, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}
	return &batchDocument{
		ID:        batch.ID,
		UserID:    batch.UserID,
		Payload:   payload,
		CreatedAt: batch.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func (d *batchDocument) toEntity() (*domain.GenerationBatch, error) {
	var batch domain.GenerationBatch
	if err := json.Unmarshal(d.Payload, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode batch %s: %w", d.ID, err)
	}
	return &batch, nil
}

// =============================================================================
// Items
// =============================================================================

// SaveItem inserts a new queue item document.
func (a *QueueAdapter) SaveItem(ctx context.Context, item *domain.QueueItem) error {
	doc, err := toQueueItemDocument(item)
	if err != nil {
		return err
	}
	if _, err := a.items.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to save queue item: %w", err)
	}
	return nil
}

// UpdateItem upserts the current state of a queue item.
func (a *QueueAdapter) UpdateItem(ctx context.Context, item *domain.QueueItem) error {
	doc, err := toQueueItemDocument(item)
	if err != nil {
		return err
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := a.items.ReplaceOne(ctx, bson.M{"id": item.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to update queue item: %w", err)
	}
	return nil
}

// GetItem retrieves a queue item, nil when absent.
func (a *QueueAdapter) GetItem(ctx context.Context, id string) (*domain.QueueItem, error) {
	var doc queueItemDocument
	err := a.items.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue item: %w", err)
	}
	return doc.toEntity()
}

// ListItems pages a user's items, newest first, optionally filtered by
// status.
func (a *QueueAdapter) ListItems(ctx context.Context, userID string, statuses []domain.GenerationStatus, limit, offset int) ([]*domain.QueueItem, int, error) {
	filter := bson.M{"user_id": userID}
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		filter["status"] = bson.M{"$in": values}
	}

	total, err := a.items.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count queue items: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := a.items.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list queue items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*domain.QueueItem
	for cursor.Next(ctx) {
		var doc queueItemDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode queue item document: %w", err)
		}
		item, err := doc.toEntity()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("queue item cursor failed: %w", err)
	}
	return items, int(total), nil
}

// ListPendingItems retrieves every non-terminal item, oldest first, for
// restart recovery.
func (a *QueueAdapter) ListPendingItems(ctx context.Context) ([]*domain.QueueItem, error) {
	filter := bson.M{"status": bson.M{"$in": []string{
		string(domain.GenerationStatusQueued),
		string(domain.GenerationStatusProcessing),
	}}}
	opts := options.Find().SetSort(bson.D{
		{Key: "priority", Value: -1},
		{Key: "created_at", Value: 1},
	})

	cursor, err := a.items.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*domain.QueueItem
	for cursor.Next(ctx) {
		var doc queueItemDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode queue item document: %w", err)
		}
		item, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("pending item cursor failed: %w", err)
	}
	return items, nil
}

// DeleteTerminalBefore trims a user's terminal history beyond the newest
// keep entries, returning how many were removed.
func (a *QueueAdapter) DeleteTerminalBefore(ctx context.Context, userID string, keep int) (int, error) {
	terminal := bson.M{"$in": []string{
		string(domain.GenerationStatusComplete),
		string(domain.GenerationStatusFailed),
		string(domain.GenerationStatusCancelled),
	}}
	filter := bson.M{"user_id": userID, "status": terminal}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(keep)).
		SetProjection(bson.M{"id": 1})

	cursor, err := a.items.Find(ctx, filter, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale items: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return 0, fmt.Errorf("failed to decode stale item id: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := a.items.DeleteMany(ctx, bson.M{"id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("failed to trim queue history: %w", err)
	}
	return int(result.DeletedCount), nil
}

// =============================================================================
// Batches
// =============================================================================

// SaveBatch inserts a new batch document.
func (a *QueueAdapter) SaveBatch(ctx context.Context, batch *domain.GenerationBatch) error {
	doc, err := toBatchDocument(batch)
	if err != nil {
		return err
	}
	if _, err := a.batches.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to save batch: %w", err)
	}
	return nil
}

// UpdateBatch upserts the current state of a batch.
func (a *QueueAdapter) UpdateBatch(ctx context.Context, batch *domain.GenerationBatch) error {
	doc, err := toBatchDocument(batch)
	if err != nil {
		return err
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := a.batches.ReplaceOne(ctx, bson.M{"id": batch.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}
	return nil
}

// GetBatch retrieves a batch, nil when absent.
func (a *QueueAdapter) GetBatch(ctx context.Context, id string) (*domain.GenerationBatch, error) {
	var doc batchDocument
	err := a.batches.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return doc.toEntity()
}

// ListBatches pages a user's batches, newest first.
func (a *QueueAdapter) ListBatches(ctx context.Context, userID string, limit, offset int) ([]*domain.GenerationBatch, int, error) {
	filter := bson.M{"user_id": userID}

	total, err := a.batches.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count batches: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := a.batches.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list batches: %w", err)
	}
	defer cursor.Close(ctx)

	var batches []*domain.GenerationBatch
	for cursor.Next(ctx) {
		var doc batchDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to decode batch document: %w", err)
		}
		batch, err := doc.toEntity()
		if err != nil {
			return nil, 0, err
		}
		batches = append(batches, batch)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("batch cursor failed: %w", err)
	}
	return batches, int(total), nil
}
