package usecase

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/aeristo/airlog/common"
	"github.com/aeristo/airlog/schema"
	"github.com/aeristo/airlog/validation"
)

// MeasurementUseCase appends and lists air-quality readings. Each call
// is independent; the only shared state is the injected repository.
type MeasurementUseCase struct {
	logger       *logrus.Logger
	measurements MeasurementRepository
	publisher    Publisher
	policy       common.ListPolicy
}

func NewMeasurementUseCase(logger *logrus.Logger, measurements MeasurementRepository, publisher Publisher, policy common.ListPolicy) *MeasurementUseCase {
	return &MeasurementUseCase{
		logger:       logger,
		measurements: measurements,
		publisher:    publisher,
		policy:       policy,
	}
}

// Create persists a validated payload and publishes the stored record.
// The caller must have run validation first; a store failure propagates
// unrecoverably, there is no retry.
func (uc *MeasurementUseCase) Create(ctx context.Context, traceID string, input *validation.MeasurementInput) (*schema.Measurement, error) {
	stored, err := uc.measurements.Insert(ctx, traceID, input.ToMeasurement())
	if err != nil {
		return nil, err
	}
	uc.logger.Infof("{%s} measurement %s saved", traceID, stored.ID.Hex())
	if uc.publisher != nil {
		uc.publisher.PublishMeasurementAdded(stored)
	}
	return stored, nil
}

// List returns stored measurements under the configured policy. The
// result is never nil so the REST surface always serializes an array.
func (uc *MeasurementUseCase) List(ctx context.Context, traceID string) ([]schema.Measurement, error) {
	measurements, err := uc.measurements.List(ctx, traceID, uc.policy)
	if err != nil {
		return nil, err
	}
	if measurements == nil {
		measurements = []schema.Measurement{}
	}
	return measurements, nil
}

// ListAll ignores the page cap; used by the export flow.
func (uc *MeasurementUseCase) ListAll(ctx context.Context, traceID string) ([]schema.Measurement, error) {
	measurements, err := uc.measurements.List(ctx, traceID, common.ListPolicy{Sorted: uc.policy.Sorted})
	if err != nil {
		return nil, err
	}
	if measurements == nil {
		measurements = []schema.Measurement{}
	}
	return measurements, nil
}

// Count returns the number of stored measurements.
func (uc *MeasurementUseCase) Count(ctx context.Context, traceID string) (int64, error) {
	return uc.measurements.Count(ctx, traceID)
}
