package testutil

import (
	"net/http"
	"time"

	"guestman/pkg/requestcontext"
)

// WithTime pins the request clock the way the RequestTime middleware does.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
