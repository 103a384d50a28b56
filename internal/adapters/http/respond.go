package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"catequesis/internal/domain/attendance"
)

// errorBody is the JSON envelope of every failed request.
type errorBody struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Detail  string   `json:"detail,omitempty"`
	IDs     []string `json:"ids,omitempty"`
	Retry   bool     `json:"retry"`
}

// statusFor maps an error kind to its HTTP status. Malformed requests are
// 400; well-formed requests refused by a business rule are 422.
func statusFor(kind attendance.Kind) int {
	switch kind {
	case attendance.KindInvalidBatch, attendance.KindInvalidFilter, attendance.KindUnsupportedFormat:
		return http.StatusBadRequest
	case attendance.KindInvalidDate, attendance.KindRosterMismatch:
		return http.StatusUnprocessableEntity
	case attendance.KindNotFound:
		return http.StatusNotFound
	case attendance.KindStoreConflict:
		return http.StatusConflict
	case attendance.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err.Error())
	}
}

// writeError renders err as the JSON envelope. resource names what was
// being loaded or saved, for the user-facing message.
// Causes are logged, never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error, resource string) {
	kind := attendance.KindOf(err)
	if kind == "" {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = attendance.KindStoreUnavailable
		} else {
			internalError(w, r, err)
			return
		}
	}

	status := statusFor(kind)
	body := errorBody{
		Kind:    string(kind),
		Message: attendance.UserMessage(err, resource),
		Retry:   attendance.Retryable(err) || kind == attendance.KindStoreUnavailable,
	}
	var e *attendance.Error
	if errors.As(err, &e) {
		body.Detail = e.Detail
		body.IDs = e.IDs
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request_failed", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err.Error())
	} else {
		slog.Debug("request_rejected", "method", r.Method, "path", r.URL.Path, "kind", kind, "error", err.Error())
	}
	writeJSON(w, status, body)
}

// internalError logs the error and returns 500 without leaking internals.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal_error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Kind:    "INTERNAL",
		Message: "Ocurrió un error inesperado. Reintentar",
		Retry:   true,
	})
}

// strictDecode decodes JSON from the request body, rejecting unknown fields
// and trailing data.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}

// maxBodyBytes bounds request bodies. A full group roster fits comfortably.
const maxBodyBytes = 1 << 20
