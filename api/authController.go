package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/aeristo/airlog/auth"
	"github.com/aeristo/airlog/common"
)

type (
	authenticateRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	authenticateResponse struct {
		Message string `json:"message"`
		Token   string `json:"token,omitempty"`
	}
)

// authenticate checks the submitted credentials against the single
// configured pair and issues a token on match.
//
// The original service answered 200 with {"message":"user not found"}
// on a mismatch; that status is corrected to 401 here, the body is kept.
func (a *API) authenticate(ctx context.Context, res *common.HttpResponseWriter) error {
	var req authenticateRequest
	if err := json.Unmarshal(res.Body, &req); err != nil {
		logError := errorBadPayload.SetInternalMessage(err)
		return res.WriteError(&logError)
	}

	usernameMatch := subtle.ConstantTimeCompare([]byte(req.Username), []byte(a.credential.Username)) == 1
	passwordMatch := subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.credential.Password)) == 1
	if !usernameMatch || !passwordMatch {
		return res.WriteJSONWithStatus(http.StatusUnauthorized, authenticateResponse{Message: "user not found"})
	}

	token, err := a.tokens.Issue(auth.Identity{
		Username: a.credential.Username,
		UserID:   a.credential.UserID,
	})
	if err != nil {
		logError := errorTokenIssue.SetInternalMessage(err)
		return res.WriteError(&logError)
	}

	return res.WriteJSON(authenticateResponse{
		Message: "authentication done",
		Token:   token,
	})
}
