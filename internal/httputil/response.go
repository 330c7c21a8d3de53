package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/redmonkez12/contacts-api/internal/logging"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageResponse is a plain acknowledgement body
type MessageResponse struct {
	Message string `json:"message"`
}

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// ErrInvalidBody is returned for bodies that are not decodable JSON of the expected shape
var ErrInvalidBody = errors.New("invalid request body")

// ValidationError carries the flattened field failures of a request body
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names instead of Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondMessage sends {"message": msg}
func RespondMessage(w http.ResponseWriter, message string, statusCode int) {
	RespondJSON(w, MessageResponse{Message: message}, statusCode)
}

// RespondErrorWithCode sends a JSON error response with a machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, message string, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}

// DecodeJSON decodes the request body into dst and runs struct validation on it.
// The returned error is safe to show to the client.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ErrInvalidBody
	}
	return Validate(dst)
}

// DecodeRequest decodes and validates the body into dst. On failure it
// writes the 400 response and returns false.
func DecodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := DecodeJSON(r, dst)
	if err == nil {
		return true
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		RespondErrorWithCode(w, verr.Error(), CodeValidationFailed, http.StatusBadRequest)
		return false
	}

	logging.FromContext(r.Context()).Warn("invalid request body", "error", err)
	RespondErrorWithCode(w, "invalid request body", CodeInvalidRequestBody, http.StatusBadRequest)
	return false
}

// Validate runs go-playground validation and returns a *ValidationError listing every failed field
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidBody
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return &ValidationError{Fields: msgs}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
