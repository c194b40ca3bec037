package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ContentTypeJSON is the Content-Type written by [WriteJSON].
const ContentTypeJSON = "application/json; charset=utf-8"

// WriteJSON encodes data and writes it with statusCode.
//
// Content-Type is [ContentTypeJSON] and Content-Length is set from the encoded
// size. Statuses that carry no body (1xx, 204, 304) only get their header
// written. When data cannot be encoded the response is a plain 500 and the
// error is returned.
//
//	WriteJSON(w, models.Envelope{Success: true}, http.StatusOK)
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	if !bodyAllowed(statusCode) {
		w.WriteHeader(statusCode)
		return 0, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "error writing data to JSON", http.StatusInternalServerError)
		return 0, fmt.Errorf("error writing data to JSON: %w", err)
	}

	header := w.Header()
	header.Set("Content-Type", ContentTypeJSON)
	header.Set("Content-Length", strconv.Itoa(len(jsonData)))
	w.WriteHeader(statusCode)

	return w.Write(jsonData)
}

func bodyAllowed(status int) bool {
	return status >= http.StatusOK && status != http.StatusNoContent && status != http.StatusNotModified
}
