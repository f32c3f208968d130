// Package mongo stores clothing items and outfits as MongoDB documents.
// Every mutation is a single-document update, so the pipeline's stage writes
// and user edits never overwrite each other's fields.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kirillkom/ai-closet/internal/core/domain"
)

const (
	clothingCollection = "clothingitems"
	outfitCollection   = "outfits"
)

// Connect opens a client and verifies the deployment answers.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetAppName("ai-closet"))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the owner listing indexes.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	byOwner := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}
	for _, name := range []string{clothingCollection, outfitCollection} {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, byOwner); err != nil {
			return fmt.Errorf("create %s index: %w", name, err)
		}
	}
	return nil
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func notFoundOr(err error, op, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.WrapError(domain.ErrNotFound, op, fmt.Errorf("record %s", id))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireMatched(matched int64, op, id string) error {
	if matched == 0 {
		return domain.WrapError(domain.ErrNotFound, op, fmt.Errorf("record %s", id))
	}
	return nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
