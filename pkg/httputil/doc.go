// Package httputil provides the JSON plumbing shared by the HTTP handlers.
//
// # Responses
//
// [WriteJSON] writes a value with a status code. [WriteError] maps an error
// to a status with [StatusFor] and writes it as
//
//	{"error": "<message>", "code": "<ERROR_CODE>"}
//
// # Status mapping
//
//   - INVALID_INPUT and INVALID_FORMAT: 400 Bad Request
//   - MODEL_CALL_FAILED, MALFORMED_RESPONSE and NO_TOOL_CALL: 502 Bad Gateway
//   - TIMEOUT: 504 Gateway Timeout
//   - anything else: 500 Internal Server Error
//
// A cancelled request context maps to 499, the de-facto code for a client
// that went away.
//
// # Requests
//
// [DecodeJSON] reads a bounded JSON body and reports problems as
// INVALID_INPUT errors, so they surface as 400s.
package httputil
