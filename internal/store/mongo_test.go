package store

import (
	"context"
	"testing"
	"time"

	"github.com/Satish-Das/food-donate-application/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func donationDoc(id primitive.ObjectID, status string) bson.D {
	ts := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "fullname", Value: "A"},
		{Key: "email", Value: "a@x.com"},
		{Key: "phone", Value: "9876543210"},
		{Key: "foodType", Value: "veg"},
		{Key: "fullAddress", Value: "1 Rd"},
		{Key: "foodQuantity", Value: "5"},
		{Key: "status", Value: status},
		{Key: "notes", Value: ""},
		{Key: "donationDate", Value: ts},
		{Key: "uniqueId", Value: "token"},
		{Key: "createdAt", Value: ts},
		{Key: "updatedAt", Value: ts},
	}
}

func TestMongoDonationRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create retries duplicate key", func(mt *mtest.T) {
		repo := &MongoDonationRepository{coll: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}),
			mtest.CreateSuccessResponse(),
		)

		created, err := repo.Create(context.Background(), types.Donation{FullName: "A", FoodQuantity: "5"})

		require.NoError(mt, err)
		assert.Len(mt, created.ID, 24)
		assert.Equal(mt, types.StatusPending, created.Status)
		assert.NotEmpty(mt, created.UniqueID)
	})

	mt.Run("create surfaces exhausted duplicates", func(mt *mtest.T) {
		repo := &MongoDonationRepository{coll: mt.Coll}
		dup := mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(dup),
			mtest.CreateWriteErrorsResponse(dup),
			mtest.CreateWriteErrorsResponse(dup),
		)

		_, err := repo.Create(context.Background(), types.Donation{FullName: "A"})

		assert.ErrorIs(mt, err, ErrDuplicateKey)
	})

	mt.Run("get rejects malformed id", func(mt *mtest.T) {
		repo := &MongoDonationRepository{coll: mt.Coll}

		_, err := repo.Get(context.Background(), "not-an-object-id")

		assert.ErrorIs(mt, err, ErrInvalidID)
	})

	mt.Run("get not found", func(mt *mtest.T) {
		repo := &MongoDonationRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.donates", mtest.FirstBatch))

		_, err := repo.Get(context.Background(), primitive.NewObjectID().Hex())

		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("list decodes documents", func(mt *mtest.T) {
		repo := &MongoDonationRepository{coll: mt.Coll}
		first := primitive.NewObjectID()
		second := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "db.donates", mtest.FirstBatch,
			donationDoc(first, "pending"),
			donationDoc(second, "accepted"),
		))

		donations, err := repo.List(context.Background(), types.DonationFilter{OwnerEmail: "a@x.com"})

		require.NoError(mt, err)
		require.Len(mt, donations, 2)
		assert.Equal(mt, first.Hex(), donations[0].ID)
		assert.Nil(mt, donations[0].UserID)
		assert.Equal(mt, types.StatusAccepted, donations[1].Status)
	})

	mt.Run("update status returns new document", func(mt *mtest.T) {
		repo := &MongoDonationRepository{coll: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: donationDoc(id, "completed")}))

		donation, err := repo.UpdateStatus(context.Background(), id.Hex(), types.StatusCompleted)

		require.NoError(mt, err)
		assert.Equal(mt, types.StatusCompleted, donation.Status)
	})

	mt.Run("update notes not found", func(mt *mtest.T) {
		repo := &MongoDonationRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := repo.UpdateNotes(context.Background(), primitive.NewObjectID().Hex(), "call first")

		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update quantity on pending donation", func(mt *mtest.T) {
		repo := &MongoDonationRepository{coll: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: donationDoc(id, "pending")}))

		donation, err := repo.UpdateQuantity(context.Background(), id.Hex(), "5")

		require.NoError(mt, err)
		assert.Equal(mt, "5", donation.FoodQuantity)
	})

	mt.Run("update quantity on accepted donation", func(mt *mtest.T) {
		repo := &MongoDonationRepository{coll: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "test.donations", mtest.FirstBatch, bson.D{{Key: "n", Value: int64(1)}}),
		)

		_, err := repo.UpdateQuantity(context.Background(), id.Hex(), "5")

		assert.ErrorIs(mt, err, ErrNotPending)
	})

	mt.Run("update quantity missing donation", func(mt *mtest.T) {
		repo := &MongoDonationRepository{coll: mt.Coll}
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "test.donations", mtest.FirstBatch),
		)

		_, err := repo.UpdateQuantity(context.Background(), primitive.NewObjectID().Hex(), "5")

		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestDonationQuery(t *testing.T) {
	owner := primitive.NewObjectID()
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	query, err := donationQuery(types.DonationFilter{
		Status:     types.StatusPending,
		From:       &from,
		OwnerID:    owner.Hex(),
		OwnerEmail: "a@x.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "pending", query["status"])
	assert.Equal(t, bson.M{"$gte": from}, query["donationDate"])
	assert.Equal(t, bson.A{bson.M{"user": owner}, bson.M{"email": "a@x.com"}}, query["$or"])

	query, err = donationQuery(types.DonationFilter{OwnerEmail: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"email": "a@x.com"}, query)

	query, err = donationQuery(types.DonationFilter{FoodType: types.FoodVeg})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"foodType": "veg"}, query)

	_, err = donationQuery(types.DonationFilter{OwnerID: "bad"})
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("link donation", func(mt *mtest.T) {
		repo := &MongoUserRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		err := repo.LinkDonation(context.Background(), primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex())

		assert.NoError(mt, err)
	})

	mt.Run("link donation missing user", func(mt *mtest.T) {
		repo := &MongoUserRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.LinkDonation(context.Background(), primitive.NewObjectID().Hex(), primitive.NewObjectID().Hex())

		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		repo := &MongoUserRepository{coll: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}))

		_, err := repo.Create(context.Background(), types.User{Email: "a@x.com"})

		assert.ErrorIs(mt, err, ErrDuplicateKey)
	})

	mt.Run("set donations rejects malformed reference", func(mt *mtest.T) {
		repo := &MongoUserRepository{coll: mt.Coll}

		err := repo.SetDonations(context.Background(), primitive.NewObjectID().Hex(), []string{"bad"})

		assert.ErrorIs(mt, err, ErrInvalidID)
	})
}

func TestDropLegacyDonationEmailIndex(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("dropped", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		dropped, err := DropLegacyDonationEmailIndex(context.Background(), mt.DB)
		require.NoError(mt, err)
		assert.True(mt, dropped)
	})

	mt.Run("already gone", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    codeIndexNotFound,
			Name:    "IndexNotFound",
			Message: "index not found with name [email_1]",
		}))

		dropped, err := DropLegacyDonationEmailIndex(context.Background(), mt.DB)
		require.NoError(mt, err)
		assert.False(mt, dropped)
	})

	mt.Run("other failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))

		_, err := DropLegacyDonationEmailIndex(context.Background(), mt.DB)
		assert.ErrorContains(mt, err, "drop index email_1")
	})
}
