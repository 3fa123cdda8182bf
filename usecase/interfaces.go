package usecase

import (
	"bytes"
	"context"

	"github.com/aeristo/airlog/common"
	"github.com/aeristo/airlog/schema"
)

type MeasurementRepository interface {
	Insert(ctx context.Context, traceID string, m *schema.Measurement) (*schema.Measurement, error)
	List(ctx context.Context, traceID string, policy common.ListPolicy) ([]schema.Measurement, error)
	Count(ctx context.Context, traceID string) (int64, error)
}

type UserRepository interface {
	Insert(ctx context.Context, u *schema.User) (*schema.User, error)
	FindByUsername(ctx context.Context, username string) (*schema.User, error)
	List(ctx context.Context) ([]schema.User, error)
}

type DatabaseAdapter interface {
	Ping() error
	Close() error
}

type Uploader interface {
	Upload(ctx context.Context, filename string, buffer *bytes.Buffer) error
}

// Publisher is the fire-and-forget hook invoked after a measurement is
// persisted.
type Publisher interface {
	PublishMeasurementAdded(m *schema.Measurement)
}
