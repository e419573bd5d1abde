package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/fleetintake/internal/domain"
)

// ErrorResponse maps err to a status and writes it as JSON or plain text,
// whichever the client asked for. Internal details never reach the body.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	logError(logger, r, err, code, status)

	message := domain.ErrorMessage(err)
	if !acceptsJSON(r) {
		http.Error(w, message, status)
		return
	}
	writeJSONError(w, status, code, message, nil)
}

var statusByCode = map[string]int{
	domain.EINVALID:   http.StatusBadRequest,
	domain.EFORBIDDEN: http.StatusForbidden,
	domain.ENOTFOUND:  http.StatusNotFound,
	domain.ECONFLICT:  http.StatusConflict,
	domain.ERATELIMIT: http.StatusTooManyRequests,
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
// Unknown codes are 500.
func ErrorCodeToHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ValidationErrorResponse writes a rejected submission as 422 with the
// failing fields. HTML clients never get here; the form re-renders with
// inline messages instead.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, view any) {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		ErrorResponse(w, r, logger, err)
		return
	}

	logger.Debug("validation error",
		"op", ve.Op,
		"field_count", len(ve.Fields),
		"path", r.URL.Path,
	)

	var body JSONError
	body.Error.Code = domain.EINVALID
	body.Error.Message = "Validation failed"
	body.Error.Fields = ve.FieldMap()
	body.View = view

	writeJSON(w, http.StatusUnprocessableEntity, body)
}

func NotFoundResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	ErrorResponse(w, r, logger, domain.Errorf(domain.ENOTFOUND, "", "The requested resource was not found"))
}

func InternalErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	ErrorResponse(w, r, logger, domain.Internal(err, "", "An unexpected error occurred"))
}

// logError records server faults at error level and client mistakes at
// info.
func logError(logger *slog.Logger, r *http.Request, err error, code string, status int) {
	level, msg := slog.LevelInfo, "client error"
	if status >= http.StatusInternalServerError {
		level, msg = slog.LevelError, "server error"
	}

	attrs := []any{
		"error", err.Error(),
		"code", code,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}
	logger.Log(r.Context(), level, msg, attrs...)
}

// acceptsJSON checks if the client prefers JSON responses.
func acceptsJSON(r *http.Request) bool {
	// htmx requests want HTML
	if r.Header.Get("HX-Request") == "true" {
		return false
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	// Request body was JSON (API request)
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.HasSuffix(r.URL.Path, ".json")
}

// isHTMX reports whether the request was sent by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	var body JSONError
	body.Error.Code = code
	body.Error.Message = message
	body.Error.Fields = fields
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError is a typed response structure for API errors. View carries the
// session state after a rejected submission.
type JSONError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
	View any `json:"view,omitempty"`
}
