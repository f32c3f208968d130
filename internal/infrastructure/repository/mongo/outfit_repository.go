package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

type OutfitRepository struct {
	coll *mongo.Collection
}

func NewOutfitRepository(db *mongo.Database) *OutfitRepository {
	return &OutfitRepository{coll: db.Collection(outfitCollection)}
}

func (r *OutfitRepository) Create(ctx context.Context, outfit *domain.Outfit) error {
	if _, err := r.coll.InsertOne(ctx, outfit); err != nil {
		return fmt.Errorf("insert outfit: %w", err)
	}
	return nil
}

func (r *OutfitRepository) GetByID(ctx context.Context, id string) (*domain.Outfit, error) {
	var outfit domain.Outfit
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&outfit); err != nil {
		return nil, notFoundOr(err, "get outfit", id)
	}
	return &outfit, nil
}

func (r *OutfitRepository) ListByUser(ctx context.Context, userID string) ([]domain.Outfit, error) {
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "userId", Value: userID}}, newestFirst())
	if err != nil {
		return nil, fmt.Errorf("list outfits: %w", err)
	}
	out := make([]domain.Outfit, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list outfits decode: %w", err)
	}
	return out, nil
}

// Replace overwrites the mutable fields of an existing outfit. The owner and
// creation time are never rewritten.
func (r *OutfitRepository) Replace(ctx context.Context, outfit *domain.Outfit) error {
	res, err := r.coll.UpdateOne(ctx, byID(outfit.ID), bson.D{{Key: "$set", Value: bson.D{
		{Key: "imageUri", Value: outfit.ImageURI},
		{Key: "s3ImageKey", Value: outfit.ImageKey},
		{Key: "clothingItems", Value: outfit.ClothingItems},
		{Key: "tags", Value: nonNil(outfit.Tags)},
		{Key: "season", Value: nonNil(outfit.Season)},
		{Key: "occasion", Value: nonNil(outfit.Occasion)},
		{Key: "updatedAt", Value: outfit.UpdatedAt},
	}}})
	if err != nil {
		return fmt.Errorf("replace outfit: %w", err)
	}
	return requireMatched(res.MatchedCount, "replace outfit", outfit.ID)
}

func (r *OutfitRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete outfit: %w", err)
	}
	return requireMatched(res.DeletedCount, "delete outfit", id)
}
