package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Exporter dumps the full measurement listing to S3 as one JSON file.
// Export runs in the background; failures are logged, never reported to
// the request that started them.
type Exporter struct {
	logger       *logrus.Logger
	measurements *MeasurementUseCase
	uploader     Uploader
}

func NewExporter(logger *logrus.Logger, measurements *MeasurementUseCase, uploader Uploader) Exporter {
	return Exporter{
		logger:       logger,
		measurements: measurements,
		uploader:     uploader,
	}
}

func (e Exporter) Export(traceID string) {
	e.logger.Infof("{%s} launching export process", traceID)
	backgroundCtx := context.Background()

	measurements, err := e.measurements.ListAll(backgroundCtx, traceID)
	if err != nil {
		e.logger.Errorf("{%s} export list failed: %v", traceID, err)
		return
	}

	var buffer bytes.Buffer
	if err := json.NewEncoder(&buffer).Encode(measurements); err != nil {
		e.logger.Errorf("{%s} export encode failed: %v", traceID, err)
		return
	}

	startExportTime := strings.ReplaceAll(time.Now().UTC().Round(time.Second).String(), " ", "_")
	filename := strings.Join([]string{"measurements", startExportTime}, "_") + ".json"
	if err := e.uploader.Upload(backgroundCtx, filename, &buffer); err != nil {
		e.logger.Errorf("{%s} S3 upload failed: %v", traceID, err)
		return
	}
	e.logger.Infof("{%s} upload of %d measurement(s) to S3 done", traceID, len(measurements))
}
