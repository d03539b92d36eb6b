package response

import (
	"encoding/json"
	"io"
	"net/http"
)

// DecodeJSON decodes JSON from request body into the provided struct
func DecodeJSON(body io.ReadCloser, v interface{}) error {
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

// ErrorBody is the error envelope every endpoint uses.
// The shape is a wire contract consumed by clients: a single "error" field
// whose value may be a bare string or a structured detail object.
type ErrorBody struct {
	Error interface{} `json:"error"`
}

// MessageBody is the success marker for mutating endpoints.
type MessageBody struct {
	Message string `json:"message"`
}

// JSON sends a JSON response with the given status
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// OK sends a 200 OK response
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Created sends a 201 Created response
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// Message sends a 200 OK success marker
func Message(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, MessageBody{Message: message})
}

// Error sends an error response with a string reason
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

// ErrorDetails sends an error response carrying a structured reason,
// e.g. per-field validation failures
func ErrorDetails(w http.ResponseWriter, status int, details interface{}) {
	JSON(w, status, ErrorBody{Error: details})
}

// BadRequest sends a 400 Bad Request response
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 Forbidden response
func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, message)
}

// NotFound sends a 404 Not Found response
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message)
}

// Conflict sends a 409 Conflict response
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

// ValidationError sends a 422 response with per-field details
func ValidationError(w http.ResponseWriter, details map[string]string) {
	ErrorDetails(w, http.StatusUnprocessableEntity, details)
}

// InternalError sends a 500 Internal Server Error response
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "An unexpected error occurred")
}
