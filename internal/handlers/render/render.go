package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	ValidationErrorType = "validation_failed"
	DecodingErrorType   = "decoding_failed"
	ServiceErrorType    = "service_error"
	InternalErrorType   = "internal_error"

	// Posts may carry images as data urls, so the limit is generous
	MaxBodyBytes = 10 << 20
)

var validate = validator.New()

func init() {
	configureValidator(validate)
}

type Struct any

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Detail  string            `json:"detail,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	JSONWithStatus(w, data, http.StatusOK)
}

// Render ServiceError
func ServiceError(w http.ResponseWriter, message string, code int) {
	response := ErrorResponse{
		Error:   ServiceErrorType,
		Message: message,
	}

	JSONWithStatus(w, response, code)
}

// Render unexpected error as 500 together with its raw message
func InternalError(w http.ResponseWriter, message string, err error) {
	response := ErrorResponse{
		Error:   InternalErrorType,
		Message: message,
	}
	if err != nil {
		response.Detail = err.Error()
	}

	JSONWithStatus(w, response, http.StatusInternalServerError)
}

// Render json DecodeError
func DecodeError(w http.ResponseWriter, err error) {
	response := ErrorResponse{
		Error: DecodingErrorType,
	}
	code := http.StatusBadRequest

	// Try to provide more specific error message based on error type
	var typeErr *json.UnmarshalTypeError
	var sizeErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr):
		response.Message = fmt.Sprintf("Invalid data type for field '%s'", typeErr.Field)
	case errors.As(err, &sizeErr):
		response.Message = fmt.Sprintf("Request body is larger than %d bytes", sizeErr.Limit)
		code = http.StatusRequestEntityTooLarge
	default:
		response.Message = fmt.Sprintf("Failed to parse JSON: %s", err.Error())
	}

	JSONWithStatus(w, response, code)
}

// Render ValidationErrors
func ValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	response := ErrorResponse{
		Error:   ValidationErrorType,
		Message: "Request validation failed",
		Fields:  make(map[string]string, len(errs)),
	}

	for _, fieldError := range errs {
		response.Fields[fieldError.Field()] = fieldMessage(fieldError)
	}

	JSONWithStatus(w, response, http.StatusBadRequest)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Returns the decoded value and writes appropriate error responses for decoding or validation failures.
func BindAndValidate[T Struct](w http.ResponseWriter, r *http.Request) (T, error) {
	var value T

	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	err := json.NewDecoder(body).Decode(&value)
	if err != nil {
		DecodeError(w, err)
		return value, err
	}

	err = validate.Struct(value)
	if err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			InternalError(w, "Request can't be validated", err)
			return value, err
		}
		ValidationErrors(w, errs)
		return value, err
	}

	return value, nil
}

// JSONWithStatus sends data as json and enforces status code
func JSONWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
