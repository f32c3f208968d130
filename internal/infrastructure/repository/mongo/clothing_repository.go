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

type ClothingRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewClothingRepository(db *mongo.Database) *ClothingRepository {
	return newClothingRepository(db.Collection(clothingCollection))
}

func newClothingRepository(coll *mongo.Collection) *ClothingRepository {
	return &ClothingRepository{coll: coll, now: func() time.Time { return time.Now().UTC() }}
}

func (r *ClothingRepository) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func (r *ClothingRepository) Create(ctx context.Context, item *domain.ClothingItem) error {
	if _, err := r.coll.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("insert clothing item: %w", err)
	}
	return nil
}

func (r *ClothingRepository) GetByID(ctx context.Context, id string) (*domain.ClothingItem, error) {
	var item domain.ClothingItem
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&item); err != nil {
		return nil, notFoundOr(err, "get clothing item", id)
	}
	return &item, nil
}

func (r *ClothingRepository) ListByUser(ctx context.Context, userID string) ([]domain.ClothingItem, error) {
	return r.find(ctx, "list clothing items", bson.D{{Key: "userId", Value: userID}}, newestFirst())
}

func (r *ClothingRepository) ListByIDs(ctx context.Context, userID string, ids []string) ([]domain.ClothingItem, error) {
	if len(ids) == 0 {
		return []domain.ClothingItem{}, nil
	}
	filter := bson.D{
		{Key: "userId", Value: userID},
		{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}},
	}
	return r.find(ctx, "list clothing items by id", filter, nil)
}

func (r *ClothingRepository) find(ctx context.Context, op string, filter bson.D, opts *options.FindOptions) ([]domain.ClothingItem, error) {
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cursor, err := r.coll.Find(ctx, filter, findOpts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]domain.ClothingItem, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%s decode: %w", op, err)
	}
	return out, nil
}

func (r *ClothingRepository) Update(ctx context.Context, id string, upd domain.ClothingItemUpdate) (*domain.ClothingItem, error) {
	set := bson.D{}
	add := func(field string, value any) { set = append(set, bson.E{Key: field, Value: value}) }
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Subcategory != nil {
		add("subcategory", *upd.Subcategory)
	}
	if upd.Tags != nil {
		add("tags", nonNil(*upd.Tags))
	}
	if upd.Color != nil {
		add("color", nonNil(*upd.Color))
	}
	if upd.Season != nil {
		add("season", nonNil(*upd.Season))
	}
	if upd.Occasion != nil {
		add("occasion", nonNil(*upd.Occasion))
	}
	if upd.Brand != nil {
		add("brand", *upd.Brand)
	}
	if upd.PurchaseDate != nil {
		add("purchaseDate", *upd.PurchaseDate)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if len(set) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "update clothing item", errors.New("no fields to update"))
	}
	add("updatedAt", r.now())

	return r.findAndUpdate(ctx, "update clothing item", id, bson.D{{Key: "$set", Value: set}})
}

func (r *ClothingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("delete clothing item: %w", err)
	}
	return requireMatched(res.DeletedCount, "delete clothing item", id)
}

// UpdateStageStatus sets one stage's status. Its error message is kept only
// for the error status and removed otherwise.
func (r *ClothingRepository) UpdateStageStatus(ctx context.Context, id string, stage domain.Stage, status domain.StageStatus, errMessage string) error {
	if stage != domain.StageBackgroundRemoval && stage != domain.StageCategorization {
		return domain.WrapError(domain.ErrInvalidInput, "update stage status", fmt.Errorf("unknown stage %q", stage))
	}
	statusField := "processingStatus." + string(stage)
	errorField := "processingError." + string(stage)

	set := bson.D{{Key: statusField, Value: string(status)}, {Key: "updatedAt", Value: r.now()}}
	update := bson.D{}
	if status == domain.StageError {
		set = append(set, bson.E{Key: errorField, Value: errMessage})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: errorField, Value: ""}}})
	}
	update = append(bson.D{{Key: "$set", Value: set}}, update...)

	return r.updateOne(ctx, "update stage status", id, update)
}

func (r *ClothingRepository) SaveBackgroundRemoval(ctx context.Context, id, imageURI, key string) error {
	return r.updateOne(ctx, "save background removal", id, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "backgroundRemovedImageUri", Value: imageURI},
			{Key: "s3BackgroundRemovedKey", Value: key},
			{Key: "processingStatus.backgroundRemoval", Value: string(domain.StageCompleted)},
			{Key: "updatedAt", Value: r.now()},
		}},
		{Key: "$unset", Value: bson.D{{Key: "processingError.backgroundRemoval", Value: ""}}},
	})
}

func (r *ClothingRepository) SaveCategorization(ctx context.Context, id string, cat domain.Categorization) error {
	return r.updateOne(ctx, "save categorization", id, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "category", Value: cat.Category},
			{Key: "subcategory", Value: cat.Subcategory},
			{Key: "color", Value: nonNil(cat.Color)},
			{Key: "season", Value: nonNil(cat.Season)},
			{Key: "occasion", Value: nonNil(cat.Occasion)},
			{Key: "processingStatus.categorization", Value: string(domain.StageCompleted)},
			{Key: "updatedAt", Value: r.now()},
		}},
		{Key: "$unset", Value: bson.D{{Key: "processingError.categorization", Value: ""}}},
	})
}

func (r *ClothingRepository) RecordUsage(ctx context.Context, id string, action domain.UsageAction, at time.Time) (*domain.ClothingItem, error) {
	var counter, stamp string
	switch action {
	case domain.UsageWorn:
		counter, stamp = "wearCount", "lastWorn"
	case domain.UsageWashed:
		counter, stamp = "washCount", "lastWashed"
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "record usage", fmt.Errorf("unknown action %q", action))
	}
	return r.findAndUpdate(ctx, "record usage", id, bson.D{
		{Key: "$inc", Value: bson.D{{Key: counter, Value: 1}}},
		{Key: "$set", Value: bson.D{{Key: stamp, Value: at}, {Key: "updatedAt", Value: r.now()}}},
	})
}

func (r *ClothingRepository) updateOne(ctx context.Context, op, id string, update bson.D) error {
	res, err := r.coll.UpdateOne(ctx, byID(id), update)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireMatched(res.MatchedCount, op, id)
}

func (r *ClothingRepository) findAndUpdate(ctx context.Context, op, id string, update bson.D) (*domain.ClothingItem, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var item domain.ClothingItem
	if err := r.coll.FindOneAndUpdate(ctx, byID(id), update, opts).Decode(&item); err != nil {
		return nil, notFoundOr(err, op, id)
	}
	return &item, nil
}
