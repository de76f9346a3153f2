package httputil

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/matzehuels/layoutgen/pkg/errors"
)

// MaxBodyBytes bounds request bodies accepted by [DecodeJSON].
const MaxBodyBytes = 1 << 20

// StatusClientClosed is returned for requests whose client went away.
const StatusClientClosed = 499

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	if stderrors.Is(err, context.Canceled) {
		return StatusClientClosed
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeModelCall, errors.ErrCodeMalformedResponse, errors.ErrCodeNoToolCall:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an [ErrorBody] with the status from [StatusFor].
func WriteError(w http.ResponseWriter, err error) error {
	return WriteJSON(w, StatusFor(err), ErrorBody{
		Error: errors.UserMessage(err),
		Code:  errors.GetCode(err),
	})
}

// DecodeJSON decodes a single JSON value from r's body into v. Bodies larger
// than [MaxBodyBytes], malformed JSON and trailing data are INVALID_INPUT
// errors.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if dec.InputOffset() > MaxBodyBytes {
		return errors.New(errors.ErrCodeInvalidInput, "request body too large (max %d bytes)", MaxBodyBytes)
	}
	if dec.More() {
		return errors.New(errors.ErrCodeInvalidInput, "request body has trailing data")
	}
	return nil
}

// MethodNotAllowed writes a 405 error body.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: fmt.Sprintf("method %s not allowed", r.Method)})
}
