package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// Error headers carried in the error envelope, grouping failures for clients.
const (
	HeaderAuthError       = "AUTH ERROR"
	HeaderValidationError = "VALIDATION ERROR"
	HeaderNotFound        = "NOT FOUND"
	HeaderAlreadyExist    = "ALREADY EXIST"
	HeaderAPIError        = "API ERROR"
	HeaderProcessError    = "PROCESS ERROR"
)

// Envelope wraps every successful response body.
type Envelope struct {
	Time       time.Time `json:"time"`
	HTTPStatus string    `json:"httpStatus"`
	IsSuccess  bool      `json:"isSuccess"`
	Response   any       `json:"response,omitempty"`
}

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Time       time.Time `json:"time"`
	HTTPStatus string    `json:"httpStatus"`
	Header     string    `json:"header"`
	Message    string    `json:"message"`
	IsSuccess  bool      `json:"isSuccess"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes v inside a success envelope.
func WriteSuccess(w http.ResponseWriter, code int, v any) {
	WriteJSON(w, code, Envelope{
		Time:       time.Now().UTC(),
		HTTPStatus: StatusName(code),
		IsSuccess:  true,
		Response:   v,
	})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, code int, header, message string) {
	WriteJSON(w, code, ErrorEnvelope{
		Time:       time.Now().UTC(),
		HTTPStatus: StatusName(code),
		Header:     header,
		Message:    message,
		IsSuccess:  false,
	})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// StatusName renders a status code as an upper snake case name, e.g.
// 404 becomes NOT_FOUND.
func StatusName(code int) string {
	text := http.StatusText(code)
	if text == "" {
		return "UNKNOWN"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
