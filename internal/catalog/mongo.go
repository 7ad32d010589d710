package catalog

import (
	"context"
	"time"

	"docqa-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCatalog persists document records in the "documents" collection.
type MongoCatalog struct {
	collection *mongo.Collection
}

func NewMongoCatalog(db *mongo.Database) *MongoCatalog {
	return &MongoCatalog{collection: db.Collection("documents")}
}

func (c *MongoCatalog) Upsert(ctx context.Context, record *models.DocumentRecord) error {
	record.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	_, err := c.collection.ReplaceOne(ctx, bson.M{"_id": record.DocumentID}, record, opts)
	return err
}

func (c *MongoCatalog) SetStatus(ctx context.Context, documentID, status string, indexErr error) error {
	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	update := bson.M{"$set": set}
	if indexErr != nil {
		set["error_message"] = indexErr.Error()
	} else {
		update["$unset"] = bson.M{"error_message": ""}
	}
	opts := options.Update().SetUpsert(true)
	_, err := c.collection.UpdateOne(ctx, bson.M{"_id": documentID}, update, opts)
	return err
}

func (c *MongoCatalog) Get(ctx context.Context, documentID string) (*models.DocumentRecord, error) {
	var record models.DocumentRecord
	err := c.collection.FindOne(ctx, bson.M{"_id": documentID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (c *MongoCatalog) List(ctx context.Context) ([]models.DocumentRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "key", Value: 1}})
	cursor, err := c.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.DocumentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *MongoCatalog) Delete(ctx context.Context, documentID string) error {
	_, err := c.collection.DeleteOne(ctx, bson.M{"_id": documentID})
	return err
}
