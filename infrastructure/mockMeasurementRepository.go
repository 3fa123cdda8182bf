package infrastructure

import (
	"context"
	"errors"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aeristo/airlog/common"
	"github.com/aeristo/airlog/schema"
)

// MockMeasurementRepository use for unit tests. It mimics the store's
// behavior in memory: inserts assign fresh ids, the list applies the
// policy, every call can be forced to fail.
type MockMeasurementRepository struct {
	Measurements []schema.Measurement
	InsertError  bool
	ListError    bool
}

func NewMockMeasurementRepository() *MockMeasurementRepository {
	return &MockMeasurementRepository{Measurements: []schema.Measurement{}}
}

func (m *MockMeasurementRepository) Reset() {
	m.Measurements = []schema.Measurement{}
	m.InsertError = false
	m.ListError = false
}

func (m *MockMeasurementRepository) Insert(ctx context.Context, traceID string, measurement *schema.Measurement) (*schema.Measurement, error) {
	if m.InsertError {
		return nil, errors.New("mock insert error")
	}
	measurement.ID = primitive.NewObjectID()
	m.Measurements = append(m.Measurements, *measurement)
	return measurement, nil
}

func (m *MockMeasurementRepository) List(ctx context.Context, traceID string, policy common.ListPolicy) ([]schema.Measurement, error) {
	if m.ListError {
		return nil, errors.New("mock list error")
	}
	listed := make([]schema.Measurement, len(m.Measurements))
	copy(listed, m.Measurements)
	if policy.Sorted {
		sort.SliceStable(listed, func(i, j int) bool {
			return listed[i].MeasurementDate > listed[j].MeasurementDate
		})
	}
	if policy.Limit > 0 && int64(len(listed)) > policy.Limit {
		listed = listed[:policy.Limit]
	}
	return listed, nil
}

func (m *MockMeasurementRepository) Count(ctx context.Context, traceID string) (int64, error) {
	if m.ListError {
		return 0, errors.New("mock count error")
	}
	return int64(len(m.Measurements)), nil
}
