package gql

import (
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"

	"github.com/aeristo/airlog/auth"
)

// NewHTTPHandler mounts the schema behind the library handler and, when
// the request carries a valid bearer token, places the caller identity
// on the request context for the resolvers to find. A missing or bad
// token is not an error at this stage: public fields still resolve,
// addMeasurement rejects on its own.
func NewHTTPHandler(gqlSchema graphql.Schema, tokens *auth.TokenService) http.Handler {
	h := handler.New(&handler.Config{
		Schema:   &gqlSchema,
		Pretty:   true,
		GraphiQL: true,
	})

	return http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if raw, ok := auth.ExtractBearer(req.Header.Get("Authorization")); ok {
			if result := tokens.Verify(raw); result.Valid {
				req = req.WithContext(auth.WithIdentity(req.Context(), result.Identity))
			}
		}
		h.ServeHTTP(res, req)
	})
}
