// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package response

import "net/http"

// Writer is a thin decorator around [http.ResponseWriter] that
// intercepts WriteHeader and Write calls to capture response metadata.
//
// The error handler uses it to find out whether the response has already been
// committed, and the access log uses it to report status and size after the
// downstream handler has returned.
//
// Writer ensures that WriteHeader is forwarded to the underlying writer
// exactly once: subsequent calls are silently ignored, mirroring the
// behaviour documented by the [http.ResponseWriter] interface.
type Writer struct {
	http.ResponseWriter

	// status is the HTTP status code recorded on the first WriteHeader call.
	status int

	// wroteHeader reports whether WriteHeader has already been called.
	wroteHeader bool

	// size is the running total of bytes successfully written to the body.
	size int
}

// NewWriter wraps w. If w already is a *Writer it is returned as is.
func NewWriter(w http.ResponseWriter) *Writer {
	if rw, ok := w.(*Writer); ok {
		return rw
	}
	return &Writer{ResponseWriter: w}
}

// WriteHeader records the status code and forwards it to the underlying
// [http.ResponseWriter] exactly once.
func (w *Writer) WriteHeader(statusCode int) {
	if w.wroteHeader {
		return
	}
	w.status = statusCode
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write writes b to the underlying [http.ResponseWriter], implicitly calling
// WriteHeader with [http.StatusOK] first if needed.
func (w *Writer) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Status returns the status written so far, or 0.
func (w *Writer) Status() int { return w.status }

// Size returns the number of body bytes written so far.
func (w *Writer) Size() int { return w.size }

// Written reports whether the header has been sent.
func (w *Writer) Written() bool { return w.wroteHeader }

// Unwrap lets [http.ResponseController] reach the underlying writer.
func (w *Writer) Unwrap() http.ResponseWriter { return w.ResponseWriter }
