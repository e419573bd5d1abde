package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/fleetintake/internal/csrf"
	"github.com/DukeRupert/fleetintake/internal/domain"
	"github.com/DukeRupert/fleetintake/internal/handler"
	"github.com/DukeRupert/fleetintake/internal/middleware"
	"github.com/DukeRupert/fleetintake/internal/report"
	"github.com/DukeRupert/fleetintake/internal/service"
	"github.com/DukeRupert/fleetintake/internal/session"
	"github.com/DukeRupert/fleetintake/web"
)

// =============================================================================
// Test Harness
// =============================================================================

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T, idle time.Duration) (http.Handler, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := session.NewStore(idle, logger, session.WithClock(clock.Now))
	intake := service.NewIntakeService(store, service.IntakeConfig{Now: clock.Now}, logger)
	reports := service.NewReportService(intake, logger,
		report.NewPDFGenerator(time.UTC),
		report.NewJSONGenerator(time.UTC),
	)

	renderer, err := handler.NewRenderer(handler.RendererConfig{FS: web.Templates(), Logger: logger})
	require.NoError(t, err)

	sessions := middleware.NewSessionMiddleware(store, logger, false)
	csrfMiddleware := middleware.NewCSRFMiddleware(logger, false)
	protect := middleware.Stack(sessions.WithSession, csrfMiddleware.Protect)

	mux := http.NewServeMux()
	handler.NewIntakeHandler(intake, reports, renderer, time.UTC, logger).RegisterRoutes(mux, protect, protect)
	return mux, clock
}

// browser keeps cookies between requests the way a real one would.
type browser struct {
	t       *testing.T
	h       http.Handler
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, h http.Handler) *browser {
	return &browser{t: t, h: h, cookies: map[string]*http.Cookie{}}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.h.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) token() string {
	if c, ok := b.cookies[csrf.CookieName]; ok {
		return c.Value
	}
	return ""
}

// post sends a form post with the page's CSRF token.
func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	return b.do(b.formRequest(path, form))
}

// htmx sends a form post the way htmx does: token in the header.
func (b *browser) htmx(path string, form url.Values) *httptest.ResponseRecorder {
	req := b.formRequest(path, form)
	req.Header.Set("HX-Request", "true")
	req.Header.Set(csrf.HeaderName, b.token())
	return b.do(req)
}

func (b *browser) postJSON(path string, body any) *httptest.ResponseRecorder {
	b.t.Helper()
	data, err := json.Marshal(body)
	require.NoError(b.t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(csrf.HeaderName, b.token())
	return b.do(req)
}

func (b *browser) formRequest(path string, form url.Values) *http.Request {
	if form == nil {
		form = url.Values{}
	}
	if form.Get(csrf.FormFieldName) == "" {
		form.Set(csrf.FormFieldName, b.token())
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func parseHTML(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	return doc
}

func validForm() url.Values {
	return url.Values{
		"vehicleNumber": {"MH04 AB 1234"},
		"companyName":   {"TT Xpress Pvt. Ltd."},
		"ownerName":     {"Asha Rao"},
		"contact":       {"+91 98765 43210"},
		"email":         {"fleet@company.com"},
		"issue":         {"Brakes squeal at low speed"},
		"jobType":       {"Quick Service"},
	}
}

func generalServiceForm() url.Values {
	form := validForm()
	form.Set("jobType", "General Service")
	form.Set("bodyCondition", "Minor Damage")
	form.Set("paintCondition", "Faded")
	form.Set("batteryHealth", "45")
	form.Set("tyrePressure", "32 PSI")
	return form
}

// =============================================================================
// Round Trip
// =============================================================================

func TestIntake_RoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)

	// Blank form with no visible errors.
	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.NotEmpty(t, b.token())
	require.Contains(t, b.cookies, session.CookieName)

	doc := parseHTML(t, rec)
	assert.True(t, strings.HasPrefix(doc.Find("title").Text(), "New Intake"))
	assert.Equal(t, 1, doc.Find("form#intake-form").Length())
	token, _ := doc.Find(`input[name="csrf_token"]`).Attr("value")
	assert.Equal(t, b.token(), token)
	doc.Find("p.field-error").Each(func(_ int, s *goquery.Selection) {
		assert.True(t, s.HasClass("hidden"), "error %s should be hidden", s.AttrOr("id", ""))
	})
	assert.Equal(t, 0, doc.Find("#inspection").Length())

	// Empty submit stays on the form and shows every message.
	rec = b.post("/intake/submit", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	doc = parseHTML(t, b.get("/"))
	vehicleErr := doc.Find("#error-vehicleNumber")
	assert.False(t, vehicleErr.HasClass("hidden"))
	assert.Equal(t, "Vehicle number is required", vehicleErr.Text())
	assert.Equal(t, "Please describe the issue", doc.Find("#error-issue").Text())
	assert.True(t, doc.Find("#vehicleNumber").HasClass("border-red-500"))

	// Valid submit moves to the report.
	rec = b.post("/intake/submit", validForm())
	require.Equal(t, http.StatusSeeOther, rec.Code)

	doc = parseHTML(t, b.get("/"))
	reportID := strings.TrimSpace(doc.Find(".report-id").Text())
	assert.True(t, strings.HasPrefix(reportID, domain.ReportIDPrefix), reportID)
	assert.True(t, doc.Find(".banner").HasClass("banner-info"))
	assert.Contains(t, doc.Find(".banner-title").Text(), "Quick Service Scheduled")
	assert.Contains(t, doc.Find(".details").Text(), "MH04 AB 1234")
	assert.Contains(t, doc.Find("p.muted").First().Text(), "14 Oct 2026, 9:30 am")

	// New intake returns to a blank form.
	rec = b.post("/intake/new", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	doc = parseHTML(t, b.get("/"))
	value, _ := doc.Find("#vehicleNumber").Attr("value")
	assert.Empty(t, value)
	assert.True(t, doc.Find("#error-vehicleNumber").HasClass("hidden"))
}

func TestIntake_GeneralServiceReport(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.post("/intake/submit", generalServiceForm())
	require.Equal(t, http.StatusSeeOther, rec.Code)

	doc := parseHTML(t, b.get("/"))
	// 100 - 15 (minor damage) - 10 (faded) - 10 (battery 45)
	assert.Equal(t, "65", doc.Find(".score-value").Text())
	assert.Equal(t, "FAIR", doc.Find(".score-grade").Text())
	assert.True(t, doc.Find(".banner").HasClass("banner-warning"))
	assert.Equal(t, 3, doc.Find("li.flag").Length())
	assert.Equal(t, 1, doc.Find(".meter-fill.tone-warning").Length())
}

func TestIntake_CSRFRejected(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.post("/intake/submit", url.Values{csrf.FormFieldName: {"wrong"}})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestIntake_SessionExpiry(t *testing.T) {
	srv, clock := newTestServer(t, 10*time.Minute)
	b := newBrowser(t, srv)
	b.get("/")

	require.Equal(t, http.StatusSeeOther, b.post("/intake/submit", validForm()).Code)
	doc := parseHTML(t, b.get("/"))
	require.Equal(t, 1, doc.Find(".report").Length())

	clock.now = clock.now.Add(11 * time.Minute)

	doc = parseHTML(t, b.get("/"))
	assert.Equal(t, 0, doc.Find(".report").Length())
	assert.Equal(t, 1, doc.Find("form#intake-form").Length())
}

// =============================================================================
// htmx
// =============================================================================

func TestIntake_HTMXFieldEvents(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")

	// An htmx submit swaps in the form content only.
	rec := b.htmx("/intake/submit", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, "Email is required")

	// Blur keeps a touched field's message visible.
	rec = b.htmx("/intake/fields/email/blur", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := parseHTML(t, rec)
	assert.Equal(t, "Email is required", doc.Find("#error-email").Text())

	// Editing clears it until the next submit.
	rec = b.htmx("/intake/fields/email", url.Values{"email": {"not-an-email"}})
	require.Equal(t, http.StatusOK, rec.Code)
	doc = parseHTML(t, rec)
	assert.True(t, doc.Find("#error-email").HasClass("hidden"))

	rec = b.htmx("/intake/submit", nil)
	assert.Contains(t, rec.Body.String(), "Enter a valid email")
}

func TestIntake_HTMXJobTypeShowsInspection(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.htmx("/intake/job-type", url.Values{"jobType": {"General Service"}})
	require.Equal(t, http.StatusOK, rec.Code)

	doc := parseHTML(t, rec)
	assert.Equal(t, 1, doc.Find("#inspection").Length())
	assert.Equal(t, 3, doc.Find(`input[name="bodyCondition"]`).Length())
	battery, _ := doc.Find("#batteryHealth").Attr("value")
	assert.Equal(t, "75", battery)

	rec = b.htmx("/intake/job-type", url.Values{"jobType": {"Quick Service"}})
	doc = parseHTML(t, rec)
	assert.Equal(t, 0, doc.Find("#inspection").Length())
}

func TestIntake_EditRejectsBadValues(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")

	tests := []struct {
		name string
		path string
		form url.Values
		want int
	}{
		{"unknown field", "/intake/fields/mileage", url.Values{"mileage": {"1"}}, http.StatusNotFound},
		{"missing value", "/intake/fields/ownerName", nil, http.StatusBadRequest},
		{"unknown body condition", "/intake/fields/bodyCondition", url.Values{"bodyCondition": {"Dented"}}, http.StatusBadRequest},
		{"non-numeric battery", "/intake/fields/batteryHealth", url.Values{"batteryHealth": {"full"}}, http.StatusBadRequest},
		{"unknown job type", "/intake/job-type", url.Values{"jobType": {"Detailing"}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := b.htmx(tt.path, tt.form)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestIntake_StaleScreen(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")
	require.Equal(t, http.StatusSeeOther, b.post("/intake/submit", validForm()).Code)

	// The session is on the report; form events are stale.
	rec := b.htmx("/intake/reset", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("HX-Refresh"))

	rec = b.post("/intake/fields/ownerName", url.Values{"ownerName": {"Someone"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = b.postJSON("/intake/submit", map[string]string{})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"conflict"`)
}

// =============================================================================
// JSON
// =============================================================================

func TestIntake_JSONSubmit(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.postJSON("/intake/submit", map[string]any{"vehicleNumber": "MH04 AB 1234"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var rejected struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
		View domain.SessionView `json:"view"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rejected))
	assert.Equal(t, domain.EINVALID, rejected.Error.Code)
	assert.Equal(t, "Company name is required", rejected.Error.Fields["companyName"])
	assert.NotContains(t, rejected.Error.Fields, "vehicleNumber")
	assert.Equal(t, "MH04 AB 1234", rejected.View.Form.VehicleNumber)
	assert.Equal(t, domain.ScreenForm, rejected.View.Screen)

	values := map[string]any{}
	for k, v := range generalServiceForm() {
		values[k] = v[0]
	}
	values["batteryHealth"] = 20
	values["tyrePressure"] = "44"

	rec = b.postJSON("/intake/submit", values)
	require.Equal(t, http.StatusOK, rec.Code)

	var view domain.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, domain.ScreenReport, view.Screen)
	require.NotNil(t, view.Report)
	require.NotNil(t, view.Report.Assessment)
	// 100 - 15 - 10 - 25 (battery 20) - 12 (tyre 44)
	assert.Equal(t, 38, view.Report.Assessment.Score)
	assert.Equal(t, domain.HealthStatusCritical, view.Report.Assessment.Status)
}

func TestIntake_JSONRejectsUnknownFields(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.postJSON("/intake/submit", map[string]any{"mileage": 1200})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"invalid"`)
}

func TestIntake_SessionSnapshot(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")
	b.htmx("/intake/fields/companyName", url.Values{"companyName": {"Acme Haulage"}})

	rec := b.get("/api/session")
	require.Equal(t, http.StatusOK, rec.Code)

	var view domain.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "Acme Haulage", view.Form.CompanyName)
	assert.True(t, view.Touched.Has(domain.FieldCompanyName))
	assert.Equal(t, b.cookies[session.CookieName].Value, view.SessionID)
}

// =============================================================================
// Export
// =============================================================================

func TestIntake_ExportWithoutReport(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.get("/report.pdf")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = b.get("/report.json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
}

func TestIntake_Export(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")
	require.Equal(t, http.StatusSeeOther, b.post("/intake/submit", generalServiceForm()).Code)

	rec := b.get("/report.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="SVC-`)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = b.get("/report.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var exported map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &exported))
	assert.Contains(t, exported, "reportId")
}

// =============================================================================
// Theme
// =============================================================================

func TestIntake_ThemeToggle(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)

	doc := parseHTML(t, b.get("/"))
	assert.True(t, doc.Find("body").HasClass("theme-light"))
	assert.Equal(t, "Dark mode", strings.TrimSpace(doc.Find(".theme-toggle button").Text()))

	rec := b.htmx("/intake/fields/vehicleNumber", url.Values{"vehicleNumber": {"MH04 AB 1234"}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = b.post("/theme", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Contains(t, b.cookies, handler.ThemeCookieName)
	assert.Equal(t, handler.ThemeDark, b.cookies[handler.ThemeCookieName].Value)

	doc = parseHTML(t, b.get("/"))
	assert.True(t, doc.Find("body").HasClass("theme-dark"))
	assert.Equal(t, "Light mode", strings.TrimSpace(doc.Find(".theme-toggle button").Text()))
	value, _ := doc.Find("#vehicleNumber").Attr("value")
	assert.Equal(t, "MH04 AB 1234", value)

	rec = b.htmx("/theme", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("HX-Refresh"))
	assert.Equal(t, handler.ThemeLight, b.cookies[handler.ThemeCookieName].Value)
}

func TestIntake_ThemeToggleRequiresCSRF(t *testing.T) {
	srv, _ := newTestServer(t, time.Hour)
	b := newBrowser(t, srv)
	b.get("/")

	rec := b.post("/theme", url.Values{"csrf_token": {"forged"}})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, b.cookies, handler.ThemeCookieName)
}
