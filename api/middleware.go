package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aeristo/airlog/auth"
	"github.com/aeristo/airlog/common"
)

// HandlerLoggerFunc expose our httpResponseWriter API
type HandlerLoggerFunc func(context.Context, *common.HttpResponseWriter) error

// authErrorResponse is the 401 body of the write pipeline. Any token
// failure, whatever the reason, produces this single message.
type authErrorResponse struct {
	Error string `json:"error"`
}

const authErrorMessage = "token missing or invalid"

// middleware logs received requests, reads the body, and runs the
// bearer-token check before handing over to the handler. Token
// extraction and verification happen here; the handlers below never see
// an unauthenticated request when requireAuth is set.
func (a *API) middleware(fn HandlerLoggerFunc, requireAuth bool) http.HandlerFunc {
	// The mux handler func:
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		start := time.Now().UTC()

		// It is recommended by go to get the request information before writing
		// So get theses now

		logErrors := make([]string, 0, 5)
		logRequest := fmt.Sprintf("%s - %s %s HTTP/%d.%d", r.RemoteAddr, r.Method, r.URL.String(), r.ProtoMajor, r.ProtoMinor)

		traceID := r.Header.Get("x-airlog-trace-session")
		if !common.IsValidUUID(traceID) {
			// We want a trace id, but for now we do not enforce it
			traceID = uuid.New().String()
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			logErrors = append(logErrors, fmt.Sprintf("ebody:\"%s\"", err))
			body = nil
		}

		ctx := r.Context()
		res := common.HttpResponseWriter{
			Header:     r.Header.Clone(), // Clone the header, to be sure
			URL:        r.URL,
			VARS:       mux.Vars(r),
			TraceID:    traceID,
			Body:       body,
			StatusCode: http.StatusOK, // Default status
			Err:        nil,
		}

		if requireAuth {
			identity, reason := a.verifyRequestToken(r)
			if reason != "" {
				logErrors = append(logErrors, fmt.Sprintf("auth:\"%s\"", reason))
				err = res.WriteJSONWithStatus(http.StatusUnauthorized, authErrorResponse{Error: authErrorMessage})
			} else {
				ctx = auth.WithIdentity(ctx, identity)
			}
		}

		// Mainteners: No read from the request below this point!

		// Make the call to the API function if we can:
		if res.StatusCode != http.StatusUnauthorized && res.Err == nil {
			err = fn(ctx, &res)
			if err != nil {
				logErrors = append(logErrors, fmt.Sprintf("efn:\"%s\"", err))
			}
		}

		// We will send a JSON, so advertise it for all of our requests
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(res.StatusCode)
		_, err = w.Write([]byte(res.WriteBuffer.String()))
		if err != nil {
			logErrors = append(logErrors, fmt.Sprintf("eww:\"%s\"", err))
		}

		// Log errors management
		if res.Err != nil {
			if res.Err.Code != "" {
				logErrors = append(logErrors, fmt.Sprintf("code:\"%s\"", res.Err.Code))
			}
			if res.Err.InternalMessage != "" {
				logErrors = append(logErrors, fmt.Sprintf("err:\"%s\"", res.Err.InternalMessage))
			}
		}

		// Get the time spent on it
		dur := time.Now().UTC().Sub(start).Milliseconds()
		var logError string
		if len(logErrors) > 0 {
			logError = fmt.Sprintf("{%s} - ", strings.Join(logErrors, ","))
		}
		a.logger.Infof("{%s} %s %d - %s%d ms - %d bytes", traceID, logRequest, res.StatusCode, logError, dur, res.Size)
	}
}

// verifyRequestToken runs the extract and verify steps of the pipeline.
// An empty returned reason means the token is valid.
func (a *API) verifyRequestToken(r *http.Request) (auth.Identity, auth.Reason) {
	raw, ok := auth.ExtractBearer(r.Header.Get("Authorization"))
	if !ok {
		return auth.Identity{}, auth.ReasonMissing
	}
	result := a.tokens.Verify(raw)
	if !result.Valid {
		return auth.Identity{}, result.Reason
	}
	return result.Identity, ""
}
