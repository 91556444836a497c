package utils

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every JSON endpoint answers with.
type Response struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func ResponseJSON(w http.ResponseWriter, code int, status bool, message string, data, errors any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Response{
		Status:  status,
		Message: message,
		Data:    data,
		Errors:  errors,
	})
}

func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	ResponseJSON(w, http.StatusOK, true, message, data, nil)
}

// ResponseError answers a failure. errors carries per-field detail, or nil.
func ResponseError(w http.ResponseWriter, code int, message string, errors any) {
	ResponseJSON(w, code, false, message, nil, errors)
}

func ResponseBadRequest(w http.ResponseWriter, message string, errors any) {
	ResponseError(w, http.StatusBadRequest, message, errors)
}

func ResponseUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="wedding-booking"`)
	ResponseError(w, http.StatusUnauthorized, message, nil)
}

func ResponseForbidden(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusForbidden, message, nil)
}

func ResponseNotFound(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusNotFound, message, nil)
}

// ResponseConflict is the losing side of a slot race; clients must not retry it.
func ResponseConflict(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusConflict, message, nil)
}

func ResponsePayloadTooLarge(w http.ResponseWriter) {
	ResponseError(w, http.StatusRequestEntityTooLarge, "Payload too large", nil)
}

func ResponseTooManyRequests(w http.ResponseWriter, message string) {
	w.Header().Set("Retry-After", "1")
	ResponseError(w, http.StatusTooManyRequests, message, nil)
}

func ResponseInternalError(w http.ResponseWriter, message string) {
	ResponseError(w, http.StatusInternalServerError, message, nil)
}
