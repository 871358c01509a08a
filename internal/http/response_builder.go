// This file implements the Builder Pattern for JSON responses and the
// mapping from domain errors to HTTP status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"casal/internal/core"
	applog "casal/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes no
// content.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	data, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"internal","message":"internal error"}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string, fields map[string]string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(errorBody{Error: errorDetail{Code: code, Message: message, Fields: fields}})
}

// inputErrors are rejections of well-formed requests.
var inputErrors = []error{
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrInvalidYearMonth,
	core.ErrInvalidAmount,
	core.ErrEmptyTitle,
	core.ErrEmptyCategory,
	core.ErrEmptySource,
	core.ErrInvalidParty,
	core.ErrInvalidSplit,
	core.ErrInvalidFixedKind,
	core.ErrInvalidCurrency,
	core.ErrEmptyName,
}

// classify maps an error to its status code and stable error code.
func classify(err error) (int, string) {
	if fieldErrors(err) != nil {
		return http.StatusUnprocessableEntity, "validation_failed"
	}
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, core.ErrNoHousehold):
		return http.StatusNotFound, "couple_not_found"
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrSettlementRecord):
		return http.StatusConflict, "settlement_record"
	}
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity, "invalid_input"
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeError logs server faults and writes the error envelope. Internal
// details never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).LogError(r.Context(), "Request failed", err, op,
			applog.NewFields().WithLedger(r.PathValue("coupleID"), r.PathValue("ym"), ""))
		message = "internal error"
	}
	if code == "validation_failed" {
		message = "request validation failed"
	}
	ErrorResponse(status, code, message, fieldErrors(err)).Write(w)
}
