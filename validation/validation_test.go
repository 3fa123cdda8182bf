package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidTimestamp(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"2021-06-01T12:30:45", true},
		{"2019-10-11T13:43:00", true},
		{"2021-02-30T10:00:00", false}, // no Feb 30
		{"2021-13-40T00:00:00", false}, // month and day out of range
		{"2021-06-01 12:30:45", false}, // missing T separator
		{"2021-06-01T12:30", false},    // missing seconds
		{"2021-06-01T12:30:45Z", false},
		{"2021-06-01T12:30:45.000", false},
		{"21-06-01T12:30:45", false},
		{"", false},
		{"not a date", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidTimestamp(tt.value))
		})
	}
}

func TestIsValidDecimal(t *testing.T) {
	tests := []struct {
		value string
		valid bool
	}{
		{"21.3", true},
		{"-5.5", true},
		{"55", true},
		{"0", true},
		{"1e3", true},
		{"", false},
		{"warm", false},
		{"21,3", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidDecimal(tt.value))
		})
	}
}

func TestParseMeasurementInput(t *testing.T) {
	body := `{"measurementDate":"2021-06-01T00:00:00","temperature":21.3,"humidity":"55.4"}`
	input, err := ParseMeasurementInput(strings.NewReader(body))
	require.NoError(t, err)

	assert.Equal(t, "2021-06-01T00:00:00", input.MeasurementDate)
	require.NotNil(t, input.Temperature)
	assert.Equal(t, "21.3", *input.Temperature)
	require.NotNil(t, input.Humidity)
	assert.Equal(t, "55.4", *input.Humidity)
}

func TestParseMeasurementInput_DateKeyFallback(t *testing.T) {
	input, err := ParseMeasurementInput(strings.NewReader(`{"date":"2021-06-01T00:00:00"}`))
	require.NoError(t, err)

	assert.Equal(t, "2021-06-01T00:00:00", input.MeasurementDate)
	assert.Nil(t, input.Temperature)
	assert.Nil(t, input.Humidity)
}

func TestParseMeasurementInput_BadJSON(t *testing.T) {
	_, err := ParseMeasurementInput(strings.NewReader(`{"measurementDate":`))
	assert.Error(t, err)
}

func TestValidate_AllFailuresReported(t *testing.T) {
	temperature := "warm"
	humidity := "wet"
	input := &MeasurementInput{
		MeasurementDate: "2021-02-30T10:00:00",
		Temperature:     &temperature,
		Humidity:        &humidity,
	}

	assert.Equal(t, []string{"date", "temperature", "humidity"}, input.Validate())
}

func TestValidate_OptionalFieldsMayBeAbsent(t *testing.T) {
	input := &MeasurementInput{MeasurementDate: "2021-06-01T00:00:00"}
	assert.Empty(t, input.Validate())
}

func TestToMeasurement(t *testing.T) {
	temperature := "21.3"
	input := &MeasurementInput{
		MeasurementDate: "2021-06-01T00:00:00",
		Temperature:     &temperature,
	}

	m := input.ToMeasurement()
	assert.Equal(t, "2021-06-01T00:00:00", m.MeasurementDate)
	require.NotNil(t, m.Temperature)
	assert.Equal(t, 21.3, *m.Temperature)
	assert.Nil(t, m.Humidity)
}
