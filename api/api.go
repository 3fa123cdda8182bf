package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/aeristo/airlog/auth"
	"github.com/aeristo/airlog/common"
	"github.com/aeristo/airlog/usecase"
)

type (
	// API struct for the airlog service
	API struct {
		measurements    *usecase.MeasurementUseCase
		accounts        *usecase.AccountUseCase
		exporter        *usecase.Exporter
		tokens          *auth.TokenService
		databaseAdapter usecase.DatabaseAdapter
		logger          *logrus.Logger
		credential      Credential
	}

	// Credential is the single configured username/password pair accepted
	// by POST /authenticate.
	Credential struct {
		Username string
		Password string
		UserID   string
	}

	// ApiStatus is the GET /status response body.
	ApiStatus struct {
		Status int    `json:"status"`
		Reason string `json:"reason"`
	}
)

var (
	errorStatusCheck    = common.DetailedError{Status: http.StatusInternalServerError, Code: "data_status_check", Message: "checking of the status endpoint showed an error"}
	errorRunningQuery   = common.DetailedError{Status: http.StatusInternalServerError, Code: "store_error", Message: "internal server error"}
	errorLoadingStatus  = common.DetailedError{Status: http.StatusInternalServerError, Code: "json_marshal_error", Message: "internal server error"}
	errorBadPayload     = common.DetailedError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: "request body is not valid JSON"}
	errorTokenIssue     = common.DetailedError{Status: http.StatusInternalServerError, Code: "token_error", Message: "internal server error"}
	errorExportDisabled = common.DetailedError{Status: http.StatusServiceUnavailable, Code: "export_disabled", Message: "export is not configured"}
)

func InitAPI(measurements *usecase.MeasurementUseCase, accounts *usecase.AccountUseCase, exporter *usecase.Exporter, tokens *auth.TokenService, dbAdapter usecase.DatabaseAdapter, logger *logrus.Logger, credential Credential) *API {
	return &API{
		measurements:    measurements,
		accounts:        accounts,
		exporter:        exporter,
		tokens:          tokens,
		databaseAdapter: dbAdapter,
		logger:          logger,
		credential:      credential,
	}
}

// SetHandlers set the API routes
func (a *API) SetHandlers(prefix string, rtr *mux.Router) {
	rtr.HandleFunc(prefix+"/measurements", a.middleware(a.listMeasurements, false)).Methods(http.MethodGet)
	rtr.HandleFunc(prefix+"/measurements", a.middleware(a.createMeasurement, true)).Methods(http.MethodPost)
	rtr.HandleFunc(prefix+"/authenticate", a.middleware(a.authenticate, false)).Methods(http.MethodPost)
	rtr.HandleFunc(prefix+"/export", a.middleware(a.exportMeasurements, true)).Methods(http.MethodPost)

	rtr.HandleFunc("/status", a.getStatus).Methods(http.MethodGet)
}

// getStatus reports whether the store answers a ping.
func (a *API) getStatus(res http.ResponseWriter, req *http.Request) {
	start := time.Now()
	var s ApiStatus
	if err := a.databaseAdapter.Ping(); err != nil {
		errorLog := errorStatusCheck.SetInternalMessage(err)
		a.logError(&errorLog, start)
		s = ApiStatus{Status: errorLog.Status, Reason: err.Error()}
	} else {
		s = ApiStatus{Status: http.StatusOK, Reason: "OK"}
	}
	if jsonDetails, err := json.Marshal(s); err != nil {
		a.jsonError(res, errorLoadingStatus.SetInternalMessage(err), start)
	} else {
		res.Header().Add("content-type", "application/json")
		res.WriteHeader(s.Status)
		res.Write(jsonDetails)
	}
}

// log error detail and write as application/json
func (a *API) jsonError(res http.ResponseWriter, err common.DetailedError, startedAt time.Time) {
	a.logError(&err, startedAt)
	jsonErr, _ := json.Marshal(err)

	res.Header().Add("content-type", "application/json")
	res.WriteHeader(err.Status)
	res.Write(jsonErr)
}

func (a *API) logError(err *common.DetailedError, startedAt time.Time) {
	err.ID = uuid.New().String()
	a.logger.Error(fmt.Sprintf("[%s][%s] failed after [%.3f]secs with error [%s][%s]", err.ID, err.Code, time.Since(startedAt).Seconds(), err.Message, err.InternalMessage))
}
