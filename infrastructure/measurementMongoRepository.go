package infrastructure

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aeristo/airlog/common"
	"github.com/aeristo/airlog/schema"
)

const (
	measurementCollectionName = "measurements"
	idxMeasurementDateDesc    = "MeasurementDateDesc"
)

// MeasurementIndexes supports the newest-first listing.
var MeasurementIndexes = map[string][]mongo.IndexModel{
	measurementCollectionName: {
		{
			Keys:    bson.D{{Key: "measurementDate", Value: -1}},
			Options: options.Index().SetName(idxMeasurementDateDesc),
		},
	},
}

// MeasurementMongoRepository persists measurements in the measurements
// collection. Documents are insert-only, never updated or deleted.
type MeasurementMongoRepository struct {
	*DatabaseAdapter
}

func NewMeasurementMongoRepository(adapter *DatabaseAdapter) *MeasurementMongoRepository {
	return &MeasurementMongoRepository{DatabaseAdapter: adapter}
}

func measurementCollection(r *MeasurementMongoRepository) *mongo.Collection {
	return r.Collection(measurementCollectionName)
}

// Insert stores a new measurement and returns it with the assigned id.
// Resubmitting an identical payload creates a second, distinct record.
func (r *MeasurementMongoRepository) Insert(ctx context.Context, traceID string, m *schema.Measurement) (*schema.Measurement, error) {
	opCtx, cancel := r.OpContext(ctx)
	defer cancel()

	m.ID = primitive.NewObjectID()
	if _, err := measurementCollection(r).InsertOne(opCtx, m); err != nil {
		return nil, fmt.Errorf("insert measurement: %w", err)
	}
	return m, nil
}

// List returns stored measurements under the given policy. With
// {Sorted: true} the result is ordered by measurementDate descending;
// a positive Limit caps it at the most recent documents.
func (r *MeasurementMongoRepository) List(ctx context.Context, traceID string, policy common.ListPolicy) ([]schema.Measurement, error) {
	opCtx, cancel := r.OpContext(ctx)
	defer cancel()

	opts := listFindOptions(policy)
	opts.SetComment(traceID)

	cursor, err := measurementCollection(r).Find(opCtx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find measurements: %w", err)
	}
	defer cursor.Close(opCtx)

	measurements := []schema.Measurement{}
	if err := cursor.All(opCtx, &measurements); err != nil {
		return nil, fmt.Errorf("decode measurements: %w", err)
	}
	return measurements, nil
}

// Count returns the number of stored measurements.
func (r *MeasurementMongoRepository) Count(ctx context.Context, traceID string) (int64, error) {
	opCtx, cancel := r.OpContext(ctx)
	defer cancel()

	opts := options.Count().SetComment(traceID)
	return measurementCollection(r).CountDocuments(opCtx, bson.M{}, opts)
}

func listFindOptions(policy common.ListPolicy) *options.FindOptions {
	opts := options.Find()
	if policy.Sorted {
		opts.SetSort(bson.D{primitive.E{Key: "measurementDate", Value: -1}})
		opts.SetHint(idxMeasurementDateDesc)
	}
	if policy.Limit > 0 {
		opts.SetLimit(policy.Limit)
	}
	return opts
}
