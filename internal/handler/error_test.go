package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/fleetintake/internal/domain"
	"github.com/DukeRupert/fleetintake/internal/report"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// Error Response Tests
// =============================================================================

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCodeToHTTPStatus(tt.code))
		})
	}
}

func TestErrorResponse_PlainText(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/intake/reset", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, discardLogger(), domain.Conflict("session.reset", "reset is only available on the intake form"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "reset is only available on the intake form")
}

func TestErrorResponse_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, discardLogger(), domain.NotFound("IntakeService.CurrentReport", "report for session", "abc"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body JSONError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ENOTFOUND, body.Error.Code)
}

func TestInternalErrorResponse_HidesDetails(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	InternalErrorResponse(rec, req, discardLogger(), fmt.Errorf("template exploded at line 12"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "exploded")
	assert.Contains(t, rec.Body.String(), "An internal error occurred")
}

func TestValidationErrorResponse_DoesNotExposeOperationName(t *testing.T) {
	ve := &domain.ValidationError{
		Op:     "session.submit",
		Fields: domain.ValidationErrors{domain.FieldEmail: "Enter a valid email"},
	}

	req := httptest.NewRequest(http.MethodPost, "/intake/submit", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	ValidationErrorResponse(rec, req, discardLogger(), ve, map[string]string{"screen": "form"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "session.submit")
	assert.Contains(t, body, `"email":"Enter a valid email"`)
	assert.Contains(t, body, `"screen":"form"`)
}

func TestValidationErrorResponse_OtherErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/intake/submit", nil)
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()

	ValidationErrorResponse(rec, req, discardLogger(), errors.New("boom"), nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAcceptsJSON(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		headers map[string]string
		want    bool
	}{
		{"browser", "/", map[string]string{"Accept": "text/html"}, false},
		{"accept header", "/", map[string]string{"Accept": "application/json"}, true},
		{"json body", "/intake/submit", map[string]string{"Content-Type": "application/json"}, true},
		{"api path", "/api/session", nil, true},
		{"json export", "/report.json", nil, true},
		{"htmx wins", "/api/session", map[string]string{"HX-Request": "true", "Accept": "application/json"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, acceptsJSON(req))
		})
	}
}

// =============================================================================
// Template Function Tests
// =============================================================================

func TestTemplateFuncs(t *testing.T) {
	funcs := TemplateFuncs()

	cn := funcs["cn"].(func(...string) string)
	merged := cn("input border-slate-300", "border-red-500")
	assert.Contains(t, merged, "border-red-500")
	assert.NotContains(t, merged, "border-slate-300")
	assert.True(t, strings.HasPrefix(merged, "input"))

	title := funcs["title"].(func(interface{}) string)
	assert.Equal(t, "General Service", title("general service"))

	dash := funcs["dash"].(func(string) string)
	assert.Equal(t, "—", dash(""))
	assert.Equal(t, "32 PSI", dash("32 PSI"))
}

func TestTone(t *testing.T) {
	assert.Equal(t, "good", tone(report.Colors.Good))
	assert.Equal(t, "warning", tone(report.BatteryColor(45)))
	assert.Equal(t, "critical", tone(report.BodyColor(domain.BodyConditionMajorDamage)))
	assert.Equal(t, "muted", tone(report.PaintColor("")))
}
