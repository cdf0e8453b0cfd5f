// Package mongodb implements MongoDB adapters for the application.
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
// MongoDB Layout Adapter
// =============================================================================

const collectionLayouts = "studio_layouts"

// LayoutAdapter implements out.LayoutStore using MongoDB. The composition
// payload stays an opaque JSON blob; only the fields queries touch are
// lifted into indexed document fields.
type LayoutAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewLayoutAdapter creates a new MongoDB layout adapter.
func NewLayoutAdapter(db *mongo.Database) *LayoutAdapter {
	return &LayoutAdapter{
		db:         db,
		collection: db.Collection(collectionLayouts),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *LayoutAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
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
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "territory_id", Value: 1},
			},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// layoutDocument represents the MongoDB document structure.
type layoutDocument struct {
	ID          string    `bson:"id"`
	UserID      string    `bson:"user_id"`
	TerritoryID string    `bson:"territory_id,omitempty"`
	Format      string    `bson:"format"`
	Archetype   string    `bson:"archetype"`
	Prediction  float64   `bson:"prediction"`
	Payload     []byte    `bson:"payload"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toLayoutDocument(layout *domain.LayoutVariation) (*layoutDocument, error) {
	payload, err := json.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("failed to encode layout: %w", err)
	}
	return &layoutDocument{
		ID:          layout.ID,
		UserID:      layout.UserID,
		TerritoryID: layout.TerritoryID,
		Format:      string(layout.Format),
		Archetype:   string(layout.Archetype),
		Prediction:  layout.PerformancePrediction,
		Payload:     payload,
		CreatedAt:   layout.CreatedAt,
		UpdatedAt:   layout.UpdatedAt,
	}, nil
}

func (d *layoutDocument) toEntity() (*domain.LayoutVariation, error) {
	var layout domain.LayoutVariation
	if err := json.Unmarshal(d.Payload, &layout); err != nil {
		return nil, fmt.Errorf("failed to decode layout %s: %w", d.ID, err)
	}
	return &layout, nil
}

// Save inserts one layout.
func (a *LayoutAdapter) Save(ctx context.Context, layout *domain.LayoutVariation) error {
	doc, err := toLayoutDocument(layout)
	if err != nil {
		return err
	}
	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to save layout: %w", err)
	}
	return nil
}

// SaveBatch inserts a generation run's candidates in one call.
func (a *LayoutAdapter) SaveBatch(ctx context.Context, layouts []*domain.LayoutVariation) error {
	if len(layouts) == 0 {
		return nil
	}

	docs := make([]any, 0, len(layouts))
	for _, layout := range layouts {
		doc, err := toLayoutDocument(layout)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	if _, err := a.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to save layouts: %w", err)
	}
	return nil
}

// Update replaces one layout document.
func (a *LayoutAdapter) Update(ctx context.Context, layout *domain.LayoutVariation) error {
	doc, err := toLayoutDocument(layout)
	if err != nil {
		return err
	}

	result, err := a.collection.ReplaceOne(ctx, bson.M{"id": layout.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update layout: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("layout not found: %s", layout.ID)
	}
	return nil
}

// Delete removes one layout.
func (a *LayoutAdapter) Delete(ctx context.Context, id string) error {
	if _, err := a.collection.DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("failed to delete layout: %w", err)
	}
	return nil
}

// GetByID retrieves one layout, nil when absent.
func (a *LayoutAdapter) GetByID(ctx context.Context, id string) (*domain.LayoutVariation, error) {
	var doc layoutDocument
	err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get layout: %w", err)
	}
	return doc.toEntity()
}

// ListByUser pages a user's layouts, newest first, with the unpaged total.
func (a *LayoutAdapter) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.LayoutVariation, int, error) {
	filter := bson.M{"user_id": userID}

	total, err := a.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count layouts: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	layouts, err := a.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return layouts, int(total), nil
}

// ListByTerritory retrieves every layout generated for one territory.
func (a *LayoutAdapter) ListByTerritory(ctx context.Context, userID, territoryID string) ([]*domain.LayoutVariation, error) {
	filter := bson.M{"user_id": userID, "territory_id": territoryID}
	opts := options.Find().SetSort(bson.D{{Key: "prediction", Value: -1}})
	return a.find(ctx, filter, opts)
}

// DeleteByUser removes all of a user's layouts, returning the count.
func (a *LayoutAdapter) DeleteByUser(ctx context.Context, userID string) (int, error) {
	result, err := a.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete layouts: %w", err)
	}
	return int(result.DeletedCount), nil
}

func (a *LayoutAdapter) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.LayoutVariation, error) {
	cursor, err := a.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}
	defer cursor.Close(ctx)

	var layouts []*domain.LayoutVariation
	for cursor.Next(ctx) {
		var doc layoutDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode layout document: %w", err)
		}
		layout, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, layout)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("layout cursor failed: %w", err)
	}
	return layouts, nil
}
