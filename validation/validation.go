// Package validation checks inbound measurement payloads before they
// reach the store. Validation is purely syntactic: a timestamp must
// match the literal pattern and parse to a real calendar date, numeric
// fields must be decimal. Timezone consistency is deliberately not
// checked.
package validation

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/aeristo/airlog/schema"
)

const timestampLayout = "2006-01-02T15:04:05"

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}$`)

// IsValidTimestamp reports whether s matches YYYY-MM-DDTHH:MM:SS and
// parses to a valid calendar date/time (rejects 2021-13-40T00:00:00).
func IsValidTimestamp(s string) bool {
	if !timestampPattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(timestampLayout, s)
	return err == nil
}

// IsValidDecimal reports whether s parses as a decimal number, integer
// or fractional.
func IsValidDecimal(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// MeasurementInput is a decoded create-measurement payload. Temperature
// and humidity keep their raw textual form so that both JSON numbers
// and numeric strings go through the same decimal check.
type MeasurementInput struct {
	MeasurementDate string
	Temperature     *string
	Humidity        *string
}

// ParseMeasurementInput decodes a JSON body. The date is accepted under
// either the "date" or the "measurementDate" key; temperature and
// humidity may be JSON numbers or strings.
func ParseMeasurementInput(r io.Reader) (*MeasurementInput, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var raw map[string]interface{}
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode measurement payload: %w", err)
	}

	input := &MeasurementInput{}
	if date, ok := raw["measurementDate"].(string); ok {
		input.MeasurementDate = date
	} else if date, ok := raw["date"].(string); ok {
		input.MeasurementDate = date
	}
	input.Temperature = rawNumericField(raw, "temperature")
	input.Humidity = rawNumericField(raw, "humidity")
	return input, nil
}

func rawNumericField(raw map[string]interface{}, key string) *string {
	value, present := raw[key]
	if !present || value == nil {
		return nil
	}
	var text string
	switch v := value.(type) {
	case json.Number:
		text = v.String()
	case string:
		text = v
	default:
		// Arrays, objects and booleans fail the decimal check downstream.
		text = fmt.Sprintf("%v", v)
	}
	return &text
}

// Validate returns the names of every failing field, empty when the
// payload is acceptable. All failures are reported at once, the caller
// never learns them one at a time.
func (in *MeasurementInput) Validate() []string {
	invalid := []string{}
	if !IsValidTimestamp(in.MeasurementDate) {
		invalid = append(invalid, "date")
	}
	if in.Temperature != nil && !IsValidDecimal(*in.Temperature) {
		invalid = append(invalid, "temperature")
	}
	if in.Humidity != nil && !IsValidDecimal(*in.Humidity) {
		invalid = append(invalid, "humidity")
	}
	return invalid
}

// ToMeasurement converts a validated payload into the document to
// persist. Must not be called before Validate returns empty.
func (in *MeasurementInput) ToMeasurement() *schema.Measurement {
	m := &schema.Measurement{MeasurementDate: in.MeasurementDate}
	if in.Temperature != nil {
		v, _ := strconv.ParseFloat(*in.Temperature, 64)
		m.Temperature = &v
	}
	if in.Humidity != nil {
		v, _ := strconv.ParseFloat(*in.Humidity, 64)
		m.Humidity = &v
	}
	return m
}
