package testutil

import (
	"net/http"

	authmw "staywatch/pkg/platform/middleware/auth"
)

// WithActor injects an authenticated actor into the request context,
// simulating what the auth middleware does for a valid bearer token.
func WithActor(req *http.Request, actor string) *http.Request {
	return req.WithContext(authmw.WithActor(req.Context(), actor))
}
