// Package handler contains HTTP handlers for the fleet intake application.
//
// This file implements the intake screens: the form, the events it sends
// while it is being filled in, and the report screen shown after a
// successful submission.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DukeRupert/fleetintake/internal/csrf"
	"github.com/DukeRupert/fleetintake/internal/domain"
	"github.com/DukeRupert/fleetintake/internal/report"
	"github.com/DukeRupert/fleetintake/internal/service"
	"github.com/DukeRupert/fleetintake/internal/session"
)

// maxFormBytes bounds every event body. The whole form is a few kilobytes.
const maxFormBytes = 64 << 10

// =============================================================================
// Template Data Types
// =============================================================================

// FieldData describes one input together with its inline error.
type FieldData struct {
	Name        string   // Wire field name, also the element id
	Label       string   // Visible label
	Type        string   // Input type for single-line fields
	Placeholder string   // Placeholder text
	Value       string   // Current value
	Error       string   // Visible error message ("" when hidden)
	Multiline   bool     // Render a textarea
	Options     []string // Choices for radio groups
}

// FormPageData contains data for the intake form page.
type FormPageData struct {
	CSRFToken string
	Theme     string
	View      domain.SessionView
	Details   []FieldData
	JobTypes  []domain.JobType
	Body      FieldData
	Paint     FieldData
	Battery   FieldData
	Tyre      FieldData
}

// DetailRow is one label/value line on the report screen.
type DetailRow struct {
	Label string
	Value string
}

// InspectionData is the health metrics block of a General Service report.
type InspectionData struct {
	Battery     int
	BatteryTone string
	Body        string
	BodyTone    string
	Paint       string
	PaintTone   string
	Tyre        string
}

// ReportPageData contains data for the report page.
type ReportPageData struct {
	CSRFToken   string
	Theme       string
	Report      *domain.Report
	GeneratedAt string
	Banner      report.Banner
	Details     []DetailRow
	Inspection  *InspectionData // nil for Quick Service
	Flags       []domain.Flag
	NoFindings  string
}

// =============================================================================
// Field Presentation
// =============================================================================

type fieldMeta struct {
	label       string
	inputType   string
	placeholder string
	multiline   bool
}

var fieldMetas = map[domain.Field]fieldMeta{
	domain.FieldVehicleNumber:  {label: "Vehicle Number", inputType: "text", placeholder: "e.g. MH04 AB 1234"},
	domain.FieldCompanyName:    {label: "Company Name", inputType: "text", placeholder: "e.g. TT Xpress Pvt. Ltd."},
	domain.FieldOwnerName:      {label: "Fleet Owner Name", inputType: "text", placeholder: "Full name"},
	domain.FieldContact:        {label: "Contact Number", inputType: "tel", placeholder: "+91 XXXXX XXXXX"},
	domain.FieldEmail:          {label: "Email Address", inputType: "email", placeholder: "fleet@company.com"},
	domain.FieldIssue:          {label: "Issue Description", placeholder: "Describe the problem in detail...", multiline: true},
	domain.FieldJobType:        {label: "Job Type"},
	domain.FieldBodyCondition:  {label: "Exterior Body Condition"},
	domain.FieldPaintCondition: {label: "Paint Condition"},
	domain.FieldBatteryHealth:  {label: "Battery Health"},
	domain.FieldTyrePressure:   {label: "Tyre Pressure", inputType: "text", placeholder: "e.g. 32 PSI"},
}

// detailFields are the vehicle and owner inputs in form order.
var detailFields = []domain.Field{
	domain.FieldVehicleNumber,
	domain.FieldCompanyName,
	domain.FieldOwnerName,
	domain.FieldContact,
	domain.FieldEmail,
	domain.FieldIssue,
}

func fieldData(view domain.SessionView, field domain.Field) FieldData {
	meta := fieldMetas[field]
	return FieldData{
		Name:        field.String(),
		Label:       meta.label,
		Type:        meta.inputType,
		Placeholder: meta.placeholder,
		Value:       view.Form.Value(field),
		Error:       view.VisibleError(field),
		Multiline:   meta.multiline,
	}
}

func choiceData[T ~string](view domain.SessionView, field domain.Field, options []T) FieldData {
	fd := fieldData(view, field)
	fd.Options = make([]string, len(options))
	for i, o := range options {
		fd.Options[i] = string(o)
	}
	return fd
}

// =============================================================================
// Handler Configuration
// =============================================================================

// IntakeHandler handles the intake form and report screens.
type IntakeHandler struct {
	intake   service.IntakeService
	reports  service.ReportService
	renderer *Renderer
	loc      *time.Location
	logger   *slog.Logger
}

// NewIntakeHandler creates a new IntakeHandler. Report timestamps are shown
// in loc.
func NewIntakeHandler(
	intake service.IntakeService,
	reports service.ReportService,
	renderer *Renderer,
	loc *time.Location,
	logger *slog.Logger,
) *IntakeHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &IntakeHandler{
		intake:   intake,
		reports:  reports,
		renderer: renderer,
		loc:      loc,
		logger:   logger,
	}
}

// =============================================================================
// Route Registration
// =============================================================================

// RegisterRoutes registers all intake routes with the provided mux.
//
// page wraps read-only routes and must resolve the session and issue a CSRF
// token. action wraps the POST events and must additionally verify the
// token.
//
// Routes:
// - GET  /                          -> Show (current screen)
// - GET  /api/session               -> Session (JSON snapshot)
// - POST /intake/fields/{field}      -> EditField
// - POST /intake/fields/{field}/blur -> BlurField
// - POST /intake/job-type           -> SelectJobType
// - POST /intake/submit             -> Submit
// - POST /intake/reset              -> Reset
// - POST /intake/new                -> NewIntake
// - GET  /report.pdf                -> Export (PDF)
// - GET  /report.json               -> Export (JSON)
// - POST /theme                     -> ToggleTheme
func (h *IntakeHandler) RegisterRoutes(mux *http.ServeMux, page, action func(http.Handler) http.Handler) {
	mux.Handle("GET /{$}", page(http.HandlerFunc(h.Show)))
	mux.Handle("GET /api/session", page(http.HandlerFunc(h.Session)))
	mux.Handle("POST /intake/fields/{field}", action(http.HandlerFunc(h.EditField)))
	mux.Handle("POST /intake/fields/{field}/blur", action(http.HandlerFunc(h.BlurField)))
	mux.Handle("POST /intake/job-type", action(http.HandlerFunc(h.SelectJobType)))
	mux.Handle("POST /intake/submit", action(http.HandlerFunc(h.Submit)))
	mux.Handle("POST /intake/reset", action(http.HandlerFunc(h.Reset)))
	mux.Handle("POST /intake/new", action(http.HandlerFunc(h.NewIntake)))
	mux.Handle("GET /report.pdf", page(h.Export(domain.ReportFormatPDF)))
	mux.Handle("GET /report.json", page(h.Export(domain.ReportFormatJSON)))
	mux.Handle("POST /theme", action(http.HandlerFunc(h.ToggleTheme)))
}

// =============================================================================
// GET / - Current Screen
// =============================================================================

// Show renders whichever screen the session is on.
func (h *IntakeHandler) Show(w http.ResponseWriter, r *http.Request) {
	view, err := h.intake.View(r.Context(), session.IDFromContext(r.Context()))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if acceptsJSON(r) {
		writeJSON(w, http.StatusOK, view)
		return
	}
	h.renderScreen(w, r, view)
}

// Session returns the session view as JSON.
func (h *IntakeHandler) Session(w http.ResponseWriter, r *http.Request) {
	view, err := h.intake.View(r.Context(), session.IDFromContext(r.Context()))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// =============================================================================
// POST /intake/fields/{field} - Field Events
// =============================================================================

// EditField sets one field. htmx receives the field's error slot, which is
// always hidden after an edit.
func (h *IntakeHandler) EditField(w http.ResponseWriter, r *http.Request) {
	const op = "IntakeHandler.EditField"

	field := domain.Field(r.PathValue("field"))
	if !field.IsValid() {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "field", field.String()))
		return
	}

	value, err := h.fieldValue(w, r, field)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	view, err := h.intake.EditField(r.Context(), session.IDFromContext(r.Context()), field, value)
	h.respondField(w, r, view, field, err)
}

// BlurField marks one field touched so its error, if any, is shown.
func (h *IntakeHandler) BlurField(w http.ResponseWriter, r *http.Request) {
	const op = "IntakeHandler.BlurField"

	field := domain.Field(r.PathValue("field"))
	if !field.IsValid() {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "field", field.String()))
		return
	}

	view, err := h.intake.BlurField(r.Context(), session.IDFromContext(r.Context()), field)
	h.respondField(w, r, view, field, err)
}

// fieldValue reads a single field's value from a form post or a JSON
// object keyed by the field name.
func (h *IntakeHandler) fieldValue(w http.ResponseWriter, r *http.Request, field domain.Field) (string, error) {
	const op = "IntakeHandler.fieldValue"

	if isJSONBody(r) {
		values, err := domain.DecodeFieldValues(http.MaxBytesReader(w, r.Body, maxFormBytes))
		if err != nil {
			return "", err
		}
		value, ok := values[field]
		if !ok {
			return "", domain.Invalid(op, "missing value for "+field.String())
		}
		return value, nil
	}

	if err := parseForm(w, r); err != nil {
		return "", err
	}
	if _, ok := r.PostForm[field.String()]; !ok {
		return "", domain.Invalid(op, "missing value for "+field.String())
	}
	return r.PostForm.Get(field.String()), nil
}

func (h *IntakeHandler) respondField(w http.ResponseWriter, r *http.Request, view domain.SessionView, field domain.Field, err error) {
	if err != nil {
		h.eventError(w, r, view, err)
		return
	}

	switch {
	case acceptsJSON(r):
		writeJSON(w, http.StatusOK, view)
	case isHTMX(r):
		c, err := h.renderer.Partial("field-error", fieldData(view, field))
		if err != nil {
			InternalErrorResponse(w, r, h.logger, err)
			return
		}
		h.renderer.RenderHTTP(w, r, http.StatusOK, c)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// =============================================================================
// POST /intake/job-type - Select Job Type
// =============================================================================

// SelectJobType switches between Quick Service and General Service and
// re-renders the form, which shows or hides the inspection section.
func (h *IntakeHandler) SelectJobType(w http.ResponseWriter, r *http.Request) {
	value, err := h.fieldValue(w, r, domain.FieldJobType)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	view, err := h.intake.SelectJobType(r.Context(), session.IDFromContext(r.Context()), domain.JobType(value))
	h.respondScreen(w, r, view, err)
}

// =============================================================================
// POST /intake/submit - Submit
// =============================================================================

// Submit applies the posted values that differ from the session and then
// validates the whole form. A rejected submission re-renders the form with
// every message visible.
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	values, err := h.submittedValues(w, r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	view, err := h.intake.Submit(r.Context(), session.IDFromContext(r.Context()), values)
	h.respondScreen(w, r, view, err)
}

// submittedValues collects the form fields present in the request. Fields
// the browser did not send (an unchecked radio group, a hidden section) are
// left out and keep their session values.
func (h *IntakeHandler) submittedValues(w http.ResponseWriter, r *http.Request) (map[domain.Field]string, error) {
	if isJSONBody(r) {
		return domain.DecodeFieldValues(http.MaxBytesReader(w, r.Body, maxFormBytes))
	}

	if err := parseForm(w, r); err != nil {
		return nil, err
	}
	values := make(map[domain.Field]string, len(domain.AllFields))
	for _, field := range domain.AllFields {
		if v, ok := r.PostForm[field.String()]; ok && len(v) > 0 {
			values[field] = v[0]
		}
	}
	return values, nil
}

// =============================================================================
// POST /intake/reset, POST /intake/new
// =============================================================================

// Reset restores the blank form.
func (h *IntakeHandler) Reset(w http.ResponseWriter, r *http.Request) {
	view, err := h.intake.Reset(r.Context(), session.IDFromContext(r.Context()))
	h.respondScreen(w, r, view, err)
}

// NewIntake leaves the report screen for a blank form.
func (h *IntakeHandler) NewIntake(w http.ResponseWriter, r *http.Request) {
	view, err := h.intake.NewIntake(r.Context(), session.IDFromContext(r.Context()))
	h.respondScreen(w, r, view, err)
}

// =============================================================================
// GET /report.{format} - Export
// =============================================================================

// Export returns a handler that downloads the current report in format.
// Without a report, browsers are sent back to the form.
func (h *IntakeHandler) Export(format domain.ReportFormat) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, err := h.reports.Export(r.Context(), session.IDFromContext(r.Context()), format)
		if err != nil {
			if domain.IsCode(err, domain.ENOTFOUND) && !acceptsJSON(r) {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			ErrorResponse(w, r, h.logger, err)
			return
		}

		w.Header().Set("Content-Type", file.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(file.Data); err != nil {
			h.logger.WarnContext(r.Context(), "failed to write report", "error", err, "filename", file.Filename)
		}
	})
}

// =============================================================================
// Responses
// =============================================================================

// respondScreen answers an event that can change the whole screen.
// JSON clients get the view; htmx gets the new screen's content; plain form
// posts are redirected back to GET / so a reload never re-posts.
func (h *IntakeHandler) respondScreen(w http.ResponseWriter, r *http.Request, view domain.SessionView, err error) {
	var ve *domain.ValidationError
	if err != nil && !errors.As(err, &ve) {
		h.eventError(w, r, view, err)
		return
	}

	switch {
	case acceptsJSON(r):
		if ve != nil {
			ValidationErrorResponse(w, r, h.logger, ve, view)
			return
		}
		writeJSON(w, http.StatusOK, view)
	case isHTMX(r):
		h.renderScreen(w, r, view)
	default:
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// eventError handles a failed event. A conflict means the browser is
// showing a stale screen, so HTML clients are sent to the current one.
func (h *IntakeHandler) eventError(w http.ResponseWriter, r *http.Request, view domain.SessionView, err error) {
	if !domain.IsCode(err, domain.ECONFLICT) || acceptsJSON(r) {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "stale screen",
		"path", r.URL.Path,
		"screen", view.Screen.String(),
		"op", domain.ErrorOp(err),
	)

	if isHTMX(r) {
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusConflict)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// renderScreen renders the page for view.Screen. htmx requests get only the
// page content, which replaces #screen.
func (h *IntakeHandler) renderScreen(w http.ResponseWriter, r *http.Request, view domain.SessionView) {
	token := csrf.TokenFromContext(r.Context())
	theme := themeFromRequest(r)

	var (
		name string
		data any
	)
	if view.Screen == domain.ScreenReport && view.Report != nil {
		page := h.reportPage(view.Report, token)
		page.Theme = theme
		name, data = "report", page
	} else {
		page := formPage(view, token)
		page.Theme = theme
		name, data = "form", page
	}

	block := "app"
	if isHTMX(r) {
		block = "content"
	}

	c, err := h.renderer.Fragment(name, block, data)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}
	h.renderer.RenderHTTP(w, r, http.StatusOK, c)
}

// =============================================================================
// Page Data
// =============================================================================

func formPage(view domain.SessionView, token string) FormPageData {
	details := make([]FieldData, len(detailFields))
	for i, f := range detailFields {
		details[i] = fieldData(view, f)
	}
	return FormPageData{
		CSRFToken: token,
		View:      view,
		Details:   details,
		JobTypes:  domain.JobTypes,
		Body:      choiceData(view, domain.FieldBodyCondition, domain.BodyConditions),
		Paint:     choiceData(view, domain.FieldPaintCondition, domain.PaintConditions),
		Battery:   fieldData(view, domain.FieldBatteryHealth),
		Tyre:      fieldData(view, domain.FieldTyrePressure),
	}
}

func (h *IntakeHandler) reportPage(rep *domain.Report, token string) ReportPageData {
	d := rep.Data
	data := ReportPageData{
		CSRFToken:   token,
		Report:      rep,
		GeneratedAt: report.FormatTimestamp(rep.GeneratedAt, h.loc),
		Banner:      report.BannerFor(rep),
		Details: []DetailRow{
			{Label: "Vehicle No.", Value: d.VehicleNumber},
			{Label: "Company", Value: d.CompanyName},
			{Label: "Job Type", Value: d.JobType.String()},
			{Label: "Name", Value: d.OwnerName},
			{Label: "Contact", Value: d.Contact},
			{Label: "Email", Value: d.Email},
			{Label: "Issue", Value: d.Issue},
		},
		NoFindings: report.NoFindingsText,
	}

	if job, ok := rep.Inspection(); ok {
		data.Inspection = &InspectionData{
			Battery:     job.BatteryHealth,
			BatteryTone: tone(report.BatteryColor(job.BatteryHealth)),
			Body:        report.OrDash(job.Body.String()),
			BodyTone:    tone(report.BodyColor(job.Body)),
			Paint:       report.OrDash(job.Paint.String()),
			PaintTone:   tone(report.PaintColor(job.Paint)),
			Tyre:        job.TyrePressure,
		}
	}
	if rep.Assessment != nil {
		data.Flags = rep.Assessment.Flags
	}
	return data
}

// =============================================================================
// Request Helpers
// =============================================================================

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func parseForm(w http.ResponseWriter, r *http.Request) error {
	const op = "handler.parseForm"

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return &domain.Error{Code: domain.EINVALID, Op: op, Message: "Invalid form data", Err: err}
	}
	return nil
}
