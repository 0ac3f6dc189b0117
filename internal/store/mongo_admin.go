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

type adminDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FullName  string             `bson:"fullname"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	Phone     string             `bson:"phone"`
	City      string             `bson:"city"`
	Pincode   string             `bson:"pincode"`
	Address   string             `bson:"address"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d adminDocument) toAdmin() types.Admin {
	return types.Admin{
		ID:           d.ID.Hex(),
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.Password,
		Phone:        d.Phone,
		City:         d.City,
		Pincode:      d.Pincode,
		Address:      d.Address,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// MongoAdminRepository handles persistence for administrators on MongoDB.
type MongoAdminRepository struct {
	coll *mongo.Collection
}

func NewMongoAdminRepository(db *mongo.Database) *MongoAdminRepository {
	return &MongoAdminRepository{coll: db.Collection(AdminsCollection)}
}

func (r *MongoAdminRepository) GetByID(ctx context.Context, id string) (types.Admin, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Admin{}, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *MongoAdminRepository) GetByEmail(ctx context.Context, email string) (types.Admin, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoAdminRepository) findOne(ctx context.Context, filter bson.M) (types.Admin, error) {
	var doc adminDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return types.Admin{}, translateMongoError(err)
	}
	return doc.toAdmin(), nil
}

func (r *MongoAdminRepository) Create(ctx context.Context, admin types.Admin) (types.Admin, error) {
	now := time.Now().UTC()
	doc := adminDocument{
		ID:        primitive.NewObjectID(),
		FullName:  admin.FullName,
		Email:     admin.Email,
		Password:  admin.PasswordHash,
		Phone:     admin.Phone,
		City:      admin.City,
		Pincode:   admin.Pincode,
		Address:   admin.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return types.Admin{}, translateMongoError(err)
	}
	return doc.toAdmin(), nil
}

func (r *MongoAdminRepository) Update(ctx context.Context, admin types.Admin) (types.Admin, error) {
	oid, err := objectID(admin.ID)
	if err != nil {
		return types.Admin{}, err
	}

	update := bson.M{"$set": bson.M{
		"fullname":  admin.FullName,
		"email":     admin.Email,
		"password":  admin.PasswordHash,
		"phone":     admin.Phone,
		"city":      admin.City,
		"pincode":   admin.Pincode,
		"address":   admin.Address,
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc adminDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return types.Admin{}, translateMongoError(err)
	}
	return doc.toAdmin(), nil
}
