package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a success envelope. data is marshalled with encoding/json;
// a nil data is written as null.
func writeJSON(w http.ResponseWriter, status int, data any, message string) {
	raw, err := json.Marshal(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
		return
	}

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	e.Field("success", func(e *jx.Encoder) { e.Bool(true) })
	e.Field("data", func(e *jx.Encoder) { e.Raw(raw) })
	if message != "" {
		e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	}
	e.ObjEnd()

	write(w, status, e.Bytes())
}

// writeError writes a failure envelope. fields lists per-field validation
// messages and is omitted when empty.
func writeError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	e.Field("success", func(e *jx.Encoder) { e.Bool(false) })
	e.Field("data", func(e *jx.Encoder) { e.Null() })
	e.Field("code", func(e *jx.Encoder) { e.Str(code) })
	e.Field("message", func(e *jx.Encoder) { e.Str(message) })
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		e.Field("fields", func(e *jx.Encoder) {
			e.ObjStart()
			for _, k := range keys {
				e.Field(k, func(e *jx.Encoder) { e.Str(fields[k]) })
			}
			e.ObjEnd()
		})
	}
	e.ObjEnd()

	write(w, status, e.Bytes())
}

func write(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// badRequestError reports a malformed request.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

// decodeBody decodes a JSON request body into dst. Unknown fields and
// trailing data are rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return &badRequestError{msg: "request body is required"}
		case errors.As(err, &maxErr):
			return &badRequestError{msg: "request body is too large"}
		default:
			return &badRequestError{msg: "invalid JSON body: " + err.Error()}
		}
	}
	if dec.More() {
		return &badRequestError{msg: "invalid JSON body: unexpected trailing data"}
	}
	return nil
}
