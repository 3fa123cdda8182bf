package api

import (
	"bytes"
	"context"

	"github.com/aeristo/airlog/common"
	"github.com/aeristo/airlog/validation"
)

// validationErrorResponse is the 422 body: every failing field is
// enumerated, nothing is written to the store.
type validationErrorResponse struct {
	Errors []string `json:"errors"`
}

// listMeasurements returns the stored measurements under the configured
// list policy. Read access is unrestricted by design.
func (a *API) listMeasurements(ctx context.Context, res *common.HttpResponseWriter) error {
	measurements, err := a.measurements.List(ctx, res.TraceID)
	if err != nil {
		logError := errorRunningQuery.SetInternalMessage(err)
		return res.WriteError(&logError)
	}
	return res.WriteJSON(measurements)
}

// createMeasurement is the authenticated write pipeline past the token
// steps: validate, persist, echo. Terminal at the first failure, no
// retries, no idempotency.
func (a *API) createMeasurement(ctx context.Context, res *common.HttpResponseWriter) error {
	input, err := validation.ParseMeasurementInput(bytes.NewReader(res.Body))
	if err != nil {
		logError := errorBadPayload.SetInternalMessage(err)
		return res.WriteError(&logError)
	}

	if invalid := input.Validate(); len(invalid) > 0 {
		return res.WriteJSONWithStatus(422, validationErrorResponse{Errors: invalid})
	}

	stored, err := a.measurements.Create(ctx, res.TraceID, input)
	if err != nil {
		// Store failure is unrecoverable for this request.
		logError := errorRunningQuery.SetInternalMessage(err)
		return res.WriteError(&logError)
	}

	return res.WriteJSON(stored)
}

// exportMeasurements starts an asynchronous dump of the full listing to
// S3 and returns immediately.
func (a *API) exportMeasurements(ctx context.Context, res *common.HttpResponseWriter) error {
	if a.exporter == nil {
		logError := errorExportDisabled
		return res.WriteError(&logError)
	}
	go a.exporter.Export(res.TraceID)
	return res.WriteJSON(map[string]string{"message": "export started"})
}
