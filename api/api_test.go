package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeristo/airlog/auth"
	"github.com/aeristo/airlog/common"
	"github.com/aeristo/airlog/infrastructure"
	"github.com/aeristo/airlog/usecase"
)

var (
	logger          = logrus.New()
	tokens, _       = auth.NewTokenService("test-secret", time.Hour)
	dbAdapter       = infrastructure.NewMockDbAdapter()
	measurementRepo = infrastructure.NewMockMeasurementRepository()
	userRepo        = infrastructure.NewMockUserRepository()
	measurementUC   = usecase.NewMeasurementUseCase(logger, measurementRepo, nil, common.ListPolicy{Sorted: true, Limit: common.DefaultListLimit})
	accountUC       = usecase.NewAccountUseCase(logger, userRepo, tokens, false)
	testCredential  = Credential{Username: "station", Password: "station-pw", UserID: "0001"}
	testAPI         = InitAPI(measurementUC, accountUC, nil, tokens, dbAdapter, logger, testCredential)
)

// Utility function to reset all mocks to default value
func resetMocks() {
	measurementRepo.Reset()
	userRepo.Reset()
	dbAdapter.DisablePingError()
}

func newExpiredTokenService() (*auth.TokenService, error) {
	return auth.NewTokenService("test-secret", -time.Minute)
}

func authIdentity() auth.Identity {
	return auth.Identity{Username: "station", UserID: "0001"}
}

func validToken(t *testing.T) string {
	t.Helper()
	raw, err := tokens.Issue(auth.Identity{Username: "station", UserID: "0001"})
	require.NoError(t, err)
	return raw
}

func doRequest(method, target, body, authorization string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	var request *http.Request
	if body != "" {
		request = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		request = httptest.NewRequest(method, target, nil)
	}
	if authorization != "" {
		request.Header.Set("Authorization", authorization)
	}
	response := httptest.NewRecorder()
	handler(response, request)
	return response
}

func TestGetStatus_StatusOk(t *testing.T) {
	resetMocks()

	response := doRequest("GET", "/status", "", "", testAPI.getStatus)
	require.Equal(t, http.StatusOK, response.Code)

	var body ApiStatus
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.Equal(t, ApiStatus{Status: http.StatusOK, Reason: "OK"}, body)
}

func TestGetStatus_StatusKo(t *testing.T) {
	resetMocks()
	dbAdapter.EnablePingError()

	response := doRequest("GET", "/status", "", "", testAPI.getStatus)
	require.Equal(t, http.StatusInternalServerError, response.Code)

	var body ApiStatus
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.Equal(t, "Mock Ping Error", body.Reason)
}

func TestAuthenticate_KnownCredentialPair(t *testing.T) {
	resetMocks()

	handler := testAPI.middleware(testAPI.authenticate, false)
	response := doRequest("POST", "/authenticate", `{"username":"station","password":"station-pw"}`, "", handler)
	require.Equal(t, http.StatusOK, response.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.Equal(t, "authentication done", body["message"])

	result := tokens.Verify(body["token"])
	require.True(t, result.Valid)
	assert.Equal(t, "station", result.Identity.Username)
	assert.Equal(t, "0001", result.Identity.UserID)
}

// The original service returned 200 with the same body on a credential
// mismatch; the status is deliberately corrected to 401.
func TestAuthenticate_UnknownCredentialPair(t *testing.T) {
	resetMocks()

	handler := testAPI.middleware(testAPI.authenticate, false)
	for _, payload := range []string{
		`{"username":"station","password":"wrong"}`,
		`{"username":"nobody","password":"station-pw"}`,
	} {
		response := doRequest("POST", "/authenticate", payload, "", handler)
		assert.Equal(t, http.StatusUnauthorized, response.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
		assert.Equal(t, "user not found", body["message"])
		assert.Empty(t, body["token"])
	}
}

func TestAuthenticate_BadJSON(t *testing.T) {
	resetMocks()

	handler := testAPI.middleware(testAPI.authenticate, false)
	response := doRequest("POST", "/authenticate", `{"username":`, "", handler)
	assert.Equal(t, http.StatusBadRequest, response.Code)
}

type captureUploader struct {
	mu        sync.Mutex
	filenames []string
}

func (u *captureUploader) Upload(ctx context.Context, filename string, buffer *bytes.Buffer) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.filenames = append(u.filenames, filename)
	return nil
}

func (u *captureUploader) uploadCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.filenames)
}

func TestExport_AnswersImmediatelyAndUploadsInBackground(t *testing.T) {
	resetMocks()

	uploader := &captureUploader{}
	exporter := usecase.NewExporter(logger, measurementUC, uploader)
	exportAPI := InitAPI(measurementUC, accountUC, &exporter, tokens, dbAdapter, logger, testCredential)

	handler := exportAPI.middleware(exportAPI.exportMeasurements, true)
	response := doRequest("POST", "/export", "", "Bearer "+validToken(t), handler)
	require.Equal(t, http.StatusOK, response.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &body))
	assert.Equal(t, "export started", body["message"])

	// The upload runs after the response is already written.
	deadline := time.Now().Add(time.Second)
	for uploader.uploadCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("background upload never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestExport_Disabled(t *testing.T) {
	resetMocks()

	handler := testAPI.middleware(testAPI.exportMeasurements, true)
	response := doRequest("POST", "/export", "", "Bearer "+validToken(t), handler)
	assert.Equal(t, http.StatusServiceUnavailable, response.Code)
}

func TestExport_RequiresToken(t *testing.T) {
	resetMocks()

	handler := testAPI.middleware(testAPI.exportMeasurements, true)
	response := doRequest("POST", "/export", "", "", handler)
	assert.Equal(t, http.StatusUnauthorized, response.Code)
}
