package mongodb

import (
	"context"
	"fmt"
	"time"

	"studio_server/adapter/out/persistence"
	"studio_server/core/domain"

	"github.com/goccy/go-json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// =============================================================================
// MongoDB Brand Guidelines Adapter
// =============================================================================

const collectionBrandGuidelines = "studio_brand_guidelines"

// BrandAdapter implements out.BrandGuidelinesRepository using MongoDB.
type BrandAdapter struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewBrandAdapter creates a new MongoDB brand guidelines adapter.
func NewBrandAdapter(db *mongo.Database) *BrandAdapter {
	return &BrandAdapter{
		db:         db,
		collection: db.Collection(collectionBrandGuidelines),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *BrandAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_default", Value: -1},
			},
		},
	}
	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

type brandDocument struct {
	ID        string    `bson:"id"`
	UserID    string    `bson:"user_id"`
	Name      string    `bson:"name"`
	IsDefault bool      `bson:"is_default"`
	Payload   []byte    `bson:"payload"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toBrandDocument(guidelines *domain.BrandGuidelines) (*brandDocument, error) {
	payload, err := json.Marshal(guidelines)
	if err != nil {
		return nil, fmt.Errorf("failed to encode brand guidelines: %w", err)
	}
	return &brandDocument{
		ID:        guidelines.ID,
		UserID:    guidelines.UserID,
		Name:      guidelines.Name,
		IsDefault: guidelines.IsDefault,
		Payload:   payload,
		CreatedAt: guidelines.CreatedAt,
		UpdatedAt: guidelines.UpdatedAt,
	}, nil
}

func (d *brandDocument) toEntity() (*domain.BrandGuidelines, error) {
	var guidelines domain.BrandGuidelines
	if err := json.Unmarshal(d.Payload, &guidelines); err != nil {
		return nil, fmt.Errorf("failed to decode brand guidelines %s: %w", d.ID, err)
	}
	// The default flag is flipped by SetDefault without rewriting the
	// payload, so the indexed field wins.
	guidelines.IsDefault = d.IsDefault
	return &guidelines, nil
}

// Create inserts a new guidelines document.
func (a *BrandAdapter) Create(ctx context.Context, guidelines *domain.BrandGuidelines) error {
	doc, err := toBrandDocument(guidelines)
	if err != nil {
		return err
	}
	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create brand guidelines: %w", err)
	}
	return nil
}

// Update replaces an existing guidelines document.
func (a *BrandAdapter) Update(ctx context.Context, guidelines *domain.BrandGuidelines) error {
	doc, err := toBrandDocument(guidelines)
	if err != nil {
		return err
	}

	result, err := a.collection.ReplaceOne(ctx, bson.M{"id": guidelines.ID}, doc)
	if err != nil {
		return fmt.Errorf("failed to update brand guidelines: %w", err)
	}
	if result.MatchedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// Delete removes a guidelines document.
func (a *BrandAdapter) Delete(ctx context.Context, id string) error {
	result, err := a.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete brand guidelines: %w", err)
	}
	if result.DeletedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetByID retrieves guidelines by ID, nil when absent.
func (a *BrandAdapter) GetByID(ctx context.Context, id string) (*domain.BrandGuidelines, error) {
	var doc brandDocument
	err := a.collection.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand guidelines: %w", err)
	}
	return doc.toEntity()
}

// GetDefault retrieves the user's default guidelines, nil when the user
// has none.
func (a *BrandAdapter) GetDefault(ctx context.Context, userID string) (*domain.BrandGuidelines, error) {
	var doc brandDocument
	err := a.collection.FindOne(ctx, bson.M{"user_id": userID, "is_default": true}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default brand guidelines: %w", err)
	}
	return doc.toEntity()
}

// List retrieves all guidelines for a user, default first then newest.
func (a *BrandAdapter) List(ctx context.Context, userID string) ([]*domain.BrandGuidelines, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "is_default", Value: -1},
		{Key: "created_at", Value: -1},
	})

	cursor, err := a.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list brand guidelines: %w", err)
	}
	defer cursor.Close(ctx)

	var results []*domain.BrandGuidelines
	for cursor.Next(ctx) {
		var doc brandDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode brand guidelines document: %w", err)
		}
		guidelines, err := doc.toEntity()
		if err != nil {
			return nil, err
		}
		results = append(results, guidelines)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("brand guidelines cursor failed: %w", err)
	}
	return results, nil
}

// SetDefault marks one guidelines document as the user's default and
// clears the flag on all others.
func (a *BrandAdapter) SetDefault(ctx context.Context, userID, id string) error {
	_, err := a.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "is_default": true},
		bson.M{"$set": bson.M{"is_default": false, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to clear default brand guidelines: %w", err)
	}

	result, err := a.collection.UpdateOne(ctx,
		bson.M{"id": id, "user_id": userID},
		bson.M{"$set": bson.M{"is_default": true, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set default brand guidelines: %w", err)
	}
	if result.MatchedCount == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
