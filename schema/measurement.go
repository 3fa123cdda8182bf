package schema

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Measurement is one air-quality reading as stored in the measurements
// collection. The id is assigned by the store on insert and the document
// is never mutated afterwards.
//
// MeasurementDate is kept as the submitted ISO-8601 string, without
// timezone normalization. Lexicographic order on the stored format
// matches chronological order, which is what the descending list sort
// relies on.
type Measurement struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MeasurementDate string             `json:"measurementDate" bson:"measurementDate"`
	Temperature     *float64           `json:"temperature" bson:"temperature,omitempty"`
	Humidity        *float64           `json:"humidity" bson:"humidity,omitempty"`
}
