package store

import (
	"context"
	"errors"
	"time"

	"github.com/Satish-Das/food-donate-application/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type donationDocument struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty"`
	User         *primitive.ObjectID `bson:"user,omitempty"`
	FullName     string              `bson:"fullname"`
	Email        string              `bson:"email"`
	Phone        string              `bson:"phone"`
	FoodType     string              `bson:"foodType"`
	FullAddress  string              `bson:"fullAddress"`
	FoodQuantity string              `bson:"foodQuantity"`
	Status       string              `bson:"status"`
	Notes        string              `bson:"notes"`
	DonationDate time.Time           `bson:"donationDate"`
	UniqueID     string              `bson:"uniqueId"`
	CreatedAt    time.Time           `bson:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt"`
}

func (d donationDocument) toDonation() types.Donation {
	donation := types.Donation{
		ID:           d.ID.Hex(),
		FullName:     d.FullName,
		Email:        d.Email,
		Phone:        d.Phone,
		FoodType:     types.FoodType(d.FoodType),
		FullAddress:  d.FullAddress,
		FoodQuantity: d.FoodQuantity,
		Status:       types.DonationStatus(d.Status),
		Notes:        d.Notes,
		DonationDate: d.DonationDate,
		UniqueID:     d.UniqueID,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.User != nil && !d.User.IsZero() {
		owner := d.User.Hex()
		donation.UserID = &owner
	}
	return donation
}

// MongoDonationRepository handles persistence for donations on MongoDB.
type MongoDonationRepository struct {
	coll *mongo.Collection
}

func NewMongoDonationRepository(db *mongo.Database) *MongoDonationRepository {
	return &MongoDonationRepository{coll: db.Collection(DonationsCollection)}
}

func (r *MongoDonationRepository) Create(ctx context.Context, donation types.Donation) (types.Donation, error) {
	var owner *primitive.ObjectID
	if donation.UserID != nil {
		oid, err := objectID(*donation.UserID)
		if err != nil {
			return types.Donation{}, err
		}
		owner = &oid
	}

	return InsertWithRetry(ctx, donation, func(ctx context.Context, donation types.Donation) (types.Donation, error) {
		now := time.Now().UTC()
		doc := donationDocument{
			ID:           primitive.NewObjectID(),
			User:         owner,
			FullName:     donation.FullName,
			Email:        donation.Email,
			Phone:        donation.Phone,
			FoodType:     string(donation.FoodType),
			FullAddress:  donation.FullAddress,
			FoodQuantity: donation.FoodQuantity,
			Status:       string(donation.Status),
			Notes:        donation.Notes,
			DonationDate: donation.DonationDate,
			UniqueID:     donation.UniqueID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if doc.DonationDate.IsZero() {
			doc.DonationDate = now
		}
		if doc.Status == "" {
			doc.Status = string(types.StatusPending)
		}

		if _, err := r.coll.InsertOne(ctx, doc); err != nil {
			return types.Donation{}, translateMongoError(err)
		}
		return doc.toDonation(), nil
	})
}

func (r *MongoDonationRepository) Get(ctx context.Context, id string) (types.Donation, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Donation{}, err
	}

	var doc donationDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return types.Donation{}, translateMongoError(err)
	}
	return doc.toDonation(), nil
}

func (r *MongoDonationRepository) List(ctx context.Context, filter types.DonationFilter) ([]types.Donation, error) {
	query, err := donationQuery(filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	donations := make([]types.Donation, 0)
	for cursor.Next(ctx) {
		var doc donationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		donations = append(donations, doc.toDonation())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *MongoDonationRepository) Count(ctx context.Context, filter types.DonationFilter) (int64, error) {
	query, err := donationQuery(filter)
	if err != nil {
		return 0, err
	}
	return r.coll.CountDocuments(ctx, query)
}

func (r *MongoDonationRepository) UpdateStatus(ctx context.Context, id string, status types.DonationStatus) (types.Donation, error) {
	return r.set(ctx, id, "status", string(status))
}

func (r *MongoDonationRepository) UpdateNotes(ctx context.Context, id, notes string) (types.Donation, error) {
	return r.set(ctx, id, "notes", notes)
}

// UpdateQuantity changes the quantity of a pending donation. The status
// check is part of the update filter.
func (r *MongoDonationRepository) UpdateQuantity(ctx context.Context, id, quantity string) (types.Donation, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Donation{}, err
	}

	donation, err := r.setWhere(ctx, bson.M{"_id": oid, "status": string(types.StatusPending)}, "foodQuantity", quantity)
	if !errors.Is(err, ErrNotFound) {
		return donation, err
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return types.Donation{}, err
	}
	if n > 0 {
		return types.Donation{}, ErrNotPending
	}
	return types.Donation{}, ErrNotFound
}

func (r *MongoDonationRepository) set(ctx context.Context, id, field string, value any) (types.Donation, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Donation{}, err
	}
	return r.setWhere(ctx, bson.M{"_id": oid}, field, value)
}

func (r *MongoDonationRepository) setWhere(ctx context.Context, filter bson.M, field string, value any) (types.Donation, error) {
	update := bson.M{"$set": bson.M{field: value, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc donationDocument
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return types.Donation{}, translateMongoError(err)
	}
	return doc.toDonation(), nil
}

type groupCount struct {
	Key   *string `bson:"_id"`
	Count int64   `bson:"count"`
}

// Statistics returns totals and per-day counts for donations created at or
// after since. Legacy documents without createdAt fall back to donationDate.
func (r *MongoDonationRepository) Statistics(ctx context.Context, since time.Time) (types.DonationStatistics, error) {
	stats := types.EmptyStatistics()

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return types.DonationStatistics{}, err
	}
	stats.TotalDonations = total

	if stats.ByStatus, err = r.groupBy(ctx, "$status"); err != nil {
		return types.DonationStatistics{}, err
	}
	if stats.ByFoodType, err = r.groupBy(ctx, "$foodType"); err != nil {
		return types.DonationStatistics{}, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$addFields", Value: bson.M{"dateField": bson.M{"$ifNull": bson.A{"$createdAt", "$donationDate"}}}}},
		{{Key: "$match", Value: bson.M{"dateField": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$dateField"}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	days, err := r.aggregateCounts(ctx, pipeline)
	if err != nil {
		return types.DonationStatistics{}, err
	}
	for _, day := range days {
		if day.Key == nil {
			continue
		}
		stats.RecentDonations = append(stats.RecentDonations, types.DailyCount{Date: *day.Key, Count: day.Count})
	}

	return stats, nil
}

// TotalQuantity sums every numeric food quantity. Non-numeric legacy values
// count as zero.
func (r *MongoDonationRepository) TotalQuantity(ctx context.Context) (int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id": nil,
			"total": bson.M{"$sum": bson.M{"$convert": bson.M{
				"input":   "$foodQuantity",
				"to":      "long",
				"onError": 0,
				"onNull":  0,
			}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

func (r *MongoDonationRepository) groupBy(ctx context.Context, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}
	groups, err := r.aggregateCounts(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{}
	for _, group := range groups {
		if group.Key != nil && *group.Key != "" {
			counts[*group.Key] = group.Count
		}
	}
	return counts, nil
}

func (r *MongoDonationRepository) aggregateCounts(ctx context.Context, pipeline mongo.Pipeline) ([]groupCount, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []groupCount
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func donationQuery(filter types.DonationFilter) (bson.M, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.FoodType != "" {
		query["foodType"] = string(filter.FoodType)
	}
	if filter.From != nil || filter.To != nil {
		dateRange := bson.M{}
		if filter.From != nil {
			dateRange["$gte"] = *filter.From
		}
		if filter.To != nil {
			dateRange["$lte"] = *filter.To
		}
		query["donationDate"] = dateRange
	}

	if filter.HasOwner() {
		var owner bson.A
		if filter.OwnerID != "" {
			oid, err := objectID(filter.OwnerID)
			if err != nil {
				return nil, err
			}
			owner = append(owner, bson.M{"user": oid})
		}
		if filter.OwnerEmail != "" {
			owner = append(owner, bson.M{"email": filter.OwnerEmail})
		}
		if len(owner) == 1 {
			for key, value := range owner[0].(bson.M) {
				query[key] = value
			}
		} else {
			query["$or"] = owner
		}
	}

	return query, nil
}
