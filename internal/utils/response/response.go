// Package response provides helpers for writing consistent JSON HTTP
// responses and decoding JSON request bodies.
//
// Success responses may use any JSON shape. Error responses always look
// like:
//
//	{ "status": "error", "error": "field Name is required" }
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Status string constants.
const (
	StatusOK      = "ok"
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrEmptyBody is returned by DecodeJSON for a request with no body.
var ErrEmptyBody = errors.New("request body is empty")

// validate is shared; validator caches struct metadata and is safe for
// concurrent use.
var validate = newValidator()

// newValidator adds "maxbytes=N", a length limit counted in bytes rather
// than runes. bcrypt ignores everything past 72 bytes.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// Order matters: Header() → WriteHeader() → body writes. Once WriteHeader
// is called headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// Error builds an error Response from a plain message.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts a slice of validator.FieldError values into
// a single human-readable Response.
//
// Example output:
//
//	{ "status": "error", "error": "field Name is required, field Email must be a valid email address" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "gt":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be greater than %s", e.Field(), e.Param()))
		case "max":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at most %s characters", e.Field(), e.Param()))
		case "maxbytes":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at most %s bytes", e.Field(), e.Param()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}

// DecodeJSON reads r's body into v and runs its validate tags. On failure it
// writes the 400 response itself and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if !DecodeBody(w, r, v) {
		return false
	}
	return Validate(w, v)
}

// DecodeBody is DecodeJSON without the validation step, for handlers that
// fill in fields from the URL before validating.
func DecodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		WriteJSON(w, http.StatusBadRequest, GeneralError(ErrEmptyBody))
		return false
	}
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, GeneralError(err))
		return false
	}
	return true
}

// Validate runs v's validate tags, writing a 400 response and returning
// false when they fail.
func Validate(w http.ResponseWriter, v any) bool {
	if err := validate.Struct(v); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			WriteJSON(w, http.StatusBadRequest, ValidationError(validateErrs))
		} else {
			WriteJSON(w, http.StatusBadRequest, GeneralError(err))
		}
		return false
	}
	return true
}
