// Package mongo implements Ledger's optional metadata side-store on top of
// MongoDB, adapted from
// adapters/database/mongodb/metadata.mongodb.go: collection-per-entity-kind,
// entity_id filter, upsert-on-write.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/corebooks/core/internal/ledger/domain"
	"github.com/corebooks/core/internal/platform/mongox"
)

const (
	collectionAccounts     = "account_metadata"
	collectionTransactions = "transaction_metadata"
)

// metadataDocument is the on-disk shape of one metadata record.
type metadataDocument struct {
	EntityID  string         `bson:"entity_id"`
	Metadata  domain.Metadata `bson:"metadata"`
	UpdatedAt time.Time      `bson:"updated_at"`
}

// MetadataRepository is the Mongo-backed domain.MetadataRepository.
type MetadataRepository struct {
	conn *mongox.Connection
}

// NewMetadataRepository builds a MetadataRepository over conn.
func NewMetadataRepository(conn *mongox.Connection) *MetadataRepository {
	return &MetadataRepository{conn: conn}
}

func (r *MetadataRepository) set(ctx context.Context, collection, entityID string, md domain.Metadata) error {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	coll := db.Collection(collection)
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"entity_id": entityID}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "metadata", Value: md},
		{Key: "updated_at", Value: time.Now()},
	}}}

	_, err = coll.UpdateOne(ctx, filter, update, opts)

	return err
}

func (r *MetadataRepository) get(ctx context.Context, collection, entityID string) (domain.Metadata, error) {
	db, err := r.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	coll := db.Collection(collection)

	var doc metadataDocument
	if err := coll.FindOne(ctx, bson.M{"entity_id": entityID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Metadata{}, nil
		}

		return nil, err
	}

	return doc.Metadata, nil
}

// SetAccountMetadata upserts accountID's descriptive metadata.
func (r *MetadataRepository) SetAccountMetadata(ctx context.Context, accountID string, md domain.Metadata) error {
	return r.set(ctx, collectionAccounts, accountID, md)
}

// AccountMetadata returns accountID's stored metadata, or an empty map if
// none has been set.
func (r *MetadataRepository) AccountMetadata(ctx context.Context, accountID string) (domain.Metadata, error) {
	return r.get(ctx, collectionAccounts, accountID)
}

// SetTransactionMetadata upserts transactionID's descriptive metadata.
func (r *MetadataRepository) SetTransactionMetadata(ctx context.Context, transactionID string, md domain.Metadata) error {
	return r.set(ctx, collectionTransactions, transactionID, md)
}

// TransactionMetadata returns transactionID's stored metadata, or an empty
// map if none has been set.
func (r *MetadataRepository) TransactionMetadata(ctx context.Context, transactionID string) (domain.Metadata, error) {
	return r.get(ctx, collectionTransactions, transactionID)
}
