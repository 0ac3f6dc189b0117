package store

import (
	"context"
	"time"

	"github.com/Satish-Das/food-donate-application/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDocument struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	FullName       string               `bson:"fullname"`
	Email          string               `bson:"email"`
	Password       string               `bson:"password"`
	Phone          string               `bson:"phone"`
	City           string               `bson:"city"`
	Pincode        string               `bson:"pincode"`
	Address        string               `bson:"address"`
	TotalDonations int                  `bson:"totalDonations"`
	Donations      []primitive.ObjectID `bson:"donations"`
	CreatedAt      time.Time            `bson:"createdAt"`
	UpdatedAt      time.Time            `bson:"updatedAt"`
}

func (d userDocument) toUser() types.User {
	donations := make([]string, 0, len(d.Donations))
	for _, id := range d.Donations {
		donations = append(donations, id.Hex())
	}
	return types.User{
		ID:             d.ID.Hex(),
		FullName:       d.FullName,
		Email:          d.Email,
		PasswordHash:   d.Password,
		Phone:          d.Phone,
		City:           d.City,
		Pincode:        d.Pincode,
		Address:        d.Address,
		TotalDonations: d.TotalDonations,
		Donations:      donations,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// MongoUserRepository handles persistence for users on MongoDB.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(UsersCollection)}
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.User{}, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepository) GetByPhone(ctx context.Context, phone string) (types.User, error) {
	return r.findOne(ctx, bson.M{"phone": phone})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (types.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return types.User{}, translateMongoError(err)
	}
	return doc.toUser(), nil
}

// List returns users newest first. A non-positive limit returns every user.
func (r *MongoUserRepository) List(ctx context.Context, limit int) ([]types.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]types.User, 0)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		users = append(users, doc.toUser())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *MongoUserRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *MongoUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	doc := userDocument{
		ID:             primitive.NewObjectID(),
		FullName:       user.FullName,
		Email:          user.Email,
		Password:       user.PasswordHash,
		Phone:          user.Phone,
		City:           user.City,
		Pincode:        user.Pincode,
		Address:        user.Address,
		TotalDonations: 0,
		Donations:      []primitive.ObjectID{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return types.User{}, translateMongoError(err)
	}
	return doc.toUser(), nil
}

// Update writes the profile fields. Donation linkage is left untouched.
func (r *MongoUserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	oid, err := objectID(user.ID)
	if err != nil {
		return types.User{}, err
	}

	update := bson.M{"$set": bson.M{
		"fullname":  user.FullName,
		"email":     user.Email,
		"password":  user.PasswordHash,
		"phone":     user.Phone,
		"city":      user.City,
		"pincode":   user.Pincode,
		"address":   user.Address,
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return types.User{}, translateMongoError(err)
	}
	return doc.toUser(), nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkDonation increments the donation counter and appends the reference
// in one single-document update.
func (r *MongoUserRepository) LinkDonation(ctx context.Context, userID, donationID string) error {
	uid, err := objectID(userID)
	if err != nil {
		return err
	}
	did, err := objectID(donationID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$inc":  bson.M{"totalDonations": 1},
		"$push": bson.M{"donations": did},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDonations replaces the donation references and sets the counter to
// match.
func (r *MongoUserRepository) SetDonations(ctx context.Context, userID string, donationIDs []string) error {
	uid, err := objectID(userID)
	if err != nil {
		return err
	}
	refs := make([]primitive.ObjectID, 0, len(donationIDs))
	for _, id := range donationIDs {
		oid, err := objectID(id)
		if err != nil {
			return err
		}
		refs = append(refs, oid)
	}

	update := bson.M{"$set": bson.M{
		"donations":      refs,
		"totalDonations": len(refs),
		"updatedAt":      time.Now().UTC(),
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": uid}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
