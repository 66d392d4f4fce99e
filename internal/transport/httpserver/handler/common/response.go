package common

import (
	"encoding/json"
	"net/http"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type listResponse struct {
	Items  interface{} `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

type affectedResponse struct {
	Affected int64 `json:"affected"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, code, message)
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	writeJSON(w, status, payload)
}

func WriteList(w http.ResponseWriter, items interface{}, total int64, limit, offset int) {
	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: total, Limit: limit, Offset: offset})
}

// WriteAffected reports how many rows a transition or bulk action changed.
// Zero is a successful no-op.
func WriteAffected(w http.ResponseWriter, affected int64) {
	writeJSON(w, http.StatusOK, affectedResponse{Affected: affected})
}

func DecodeJSON(r *http.Request, dst interface{}) error {
	return decodeJSON(r, dst)
}
