package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/skulipro/authcore"
)

// WriteResult writes res as JSON with its recommended status and, for
// rate-limited outcomes, a Retry-After header.
func WriteResult(w http.ResponseWriter, res authcore.Result) {
	if s := res.RetryAfterSeconds(); s > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(s))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.HTTPStatus())
	_ = json.NewEncoder(w).Encode(res)
}
