package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/skulipro/authcore"
	"github.com/skulipro/authcore/internal/validate"
	"github.com/skulipro/authcore/middleware"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 16 << 10

// decode reads the JSON body into dst and validates it. On failure it has
// already written a validation result.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeValidation(w, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeValidation(w, err.Error())
		return false
	}
	return true
}

func writeValidation(w http.ResponseWriter, msg string) {
	res := authcore.ResultOf(nil, authcore.ErrValidation)
	res.Message = msg
	middleware.WriteResult(w, res)
}

func write(w http.ResponseWriter, payload any, err error) {
	middleware.WriteResult(w, authcore.ResultOf(payload, err))
}

func clean(s string) string { return strings.TrimSpace(s) }
