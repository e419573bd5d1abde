package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/DukeRupert/fleetintake/internal/domain"
)

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator renders a one-page printable service intake report.
type PDFGenerator struct {
	loc *time.Location

	// Page dimensions (A4 in mm)
	pageWidth float64
	margin    float64

	contentWidth float64
}

// NewPDFGenerator creates a PDF generator that prints timestamps in loc.
func NewPDFGenerator(loc *time.Location) *PDFGenerator {
	margin := 15.0
	pageWidth := 210.0
	return &PDFGenerator{
		loc:          loc,
		pageWidth:    pageWidth,
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
	}
}

// Format returns the output format of this generator.
func (g *PDFGenerator) Format() domain.ReportFormat {
	return domain.ReportFormatPDF
}

// Generate renders the report as PDF and writes it to w.
func (g *PDFGenerator) Generate(ctx context.Context, r *domain.Report, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate dashes and the like from UTF-8.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("Service Intake Report "+r.ID, true)
	pdf.SetCreator("Fleet Service Intake", true)
	pdf.SetCreationDate(r.GeneratedAt)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, tr, r)
	})

	pdf.AddPage()
	g.addHeader(pdf, tr, r)
	g.addBanner(pdf, tr, r)
	g.addDetails(pdf, tr, r)
	if job, ok := r.Inspection(); ok && r.Assessment != nil {
		g.addHealthMetrics(pdf, tr, job, r.Assessment)
		g.addRecommendations(pdf, tr, r.Assessment)
	}

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// =============================================================================
// Sections
// =============================================================================

func (g *PDFGenerator) addHeader(pdf *fpdf.Fpdf, tr func(string) string, r *domain.Report) {
	red, green, blue := HexToRGB(Colors.Ink)
	pdf.SetFillColor(red, green, blue)
	pdf.Rect(0, 0, g.pageWidth, 42, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetXY(g.margin, 12)
	pdf.Cell(0, 10, "Service Intake Report")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(g.margin, 24)
	pdf.Cell(0, 6, tr("Generated · "+FormatTimestamp(r.GeneratedAt, g.loc)))

	pdf.SetFont("Courier", "B", 11)
	pdf.SetXY(g.margin, 31)
	pdf.Cell(0, 6, r.ID)

	g.resetText(pdf)
	pdf.SetY(52)
}

func (g *PDFGenerator) addBanner(pdf *fpdf.Fpdf, tr func(string) string, r *domain.Report) {
	b := BannerFor(r)
	top := pdf.GetY()

	red, green, blue := HexToRGB(b.Color)
	pdf.SetDrawColor(red, green, blue)
	pdf.SetLineWidth(0.6)
	pdf.Rect(g.margin, top, g.contentWidth, 22, "D")
	pdf.SetFillColor(red, green, blue)
	pdf.Rect(g.margin, top, 3, 22, "F")

	pdf.SetXY(g.margin+8, top+4)
	pdf.SetTextColor(red, green, blue)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(g.contentWidth-50, 7, tr(b.Title))

	pdf.SetXY(g.pageWidth-g.margin-42, top+4)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(38, 7, b.Badge, "1", 0, "C", false, 0, "")

	pdf.SetXY(g.margin+8, top+12)
	g.resetText(pdf)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(g.contentWidth-16, 6, tr(b.Description))

	pdf.SetY(top + 30)
}

func (g *PDFGenerator) addDetails(pdf *fpdf.Fpdf, tr func(string) string, r *domain.Report) {
	d := r.Data

	g.addSectionHeader(pdf, "Vehicle Details")
	g.addLabelValue(pdf, tr, "Vehicle No.", d.VehicleNumber)
	g.addLabelValue(pdf, tr, "Company", d.CompanyName)
	g.addLabelValue(pdf, tr, "Job Type", d.JobType.String())
	pdf.Ln(4)

	g.addSectionHeader(pdf, "Fleet Owner")
	g.addLabelValue(pdf, tr, "Name", d.OwnerName)
	g.addLabelValue(pdf, tr, "Contact", d.Contact)
	g.addLabelValue(pdf, tr, "Email", d.Email)
	pdf.Ln(4)

	if d.Issue != "" {
		g.addSectionHeader(pdf, "Issue Description")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(g.contentWidth, 5.5, tr(d.Issue), "", "L", false)
		pdf.Ln(4)
	}
}

func (g *PDFGenerator) addHealthMetrics(pdf *fpdf.Fpdf, tr func(string) string, job domain.GeneralServiceJob, a *domain.HealthAssessment) {
	b := statusBanners[a.Status]

	g.addSectionHeader(pdf, "Health Metrics")

	// Battery bar
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(40, 6, "Battery Health:")
	red, green, blue := HexToRGB(BatteryColor(job.BatteryHealth))
	pdf.SetTextColor(red, green, blue)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(20, 6, fmt.Sprintf("%d%%", job.BatteryHealth))
	barX, barY, barW := pdf.GetX()+2, pdf.GetY()+1.5, 60.0
	br, bg, bb := HexToRGB(Colors.Border)
	pdf.SetFillColor(br, bg, bb)
	pdf.Rect(barX, barY, barW, 3, "F")
	pdf.SetFillColor(red, green, blue)
	pdf.Rect(barX, barY, barW*float64(job.BatteryHealth)/100, 3, "F")
	pdf.Ln(7)
	g.resetText(pdf)

	g.addColoredValue(pdf, tr, "Exterior Body", job.Body.String(), BodyColor(job.Body))
	g.addColoredValue(pdf, tr, "Paint Condition", job.Paint.String(), PaintColor(job.Paint))
	g.addLabelValue(pdf, tr, "Tyre Pressure", job.TyrePressure)
	pdf.Ln(4)

	// Overall score
	red, green, blue = HexToRGB(b.Color)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(40, 8, "Overall Score:")
	pdf.SetTextColor(red, green, blue)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(25, 8, fmt.Sprintf("%d", a.Score))
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(30, 8, b.Grade)
	pdf.Ln(12)
	g.resetText(pdf)
}

func (g *PDFGenerator) addRecommendations(pdf *fpdf.Fpdf, tr func(string) string, a *domain.HealthAssessment) {
	g.addSectionHeader(pdf, "Recommendations")
	pdf.SetFont("Helvetica", "", 10)

	if len(a.Flags) == 0 {
		g.addDotLine(pdf, tr, Colors.Good, NoFindingsText)
		return
	}
	for _, f := range a.Flags {
		g.addDotLine(pdf, tr, FlagColor(f.Level), f.Text)
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (g *PDFGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	red, green, blue := HexToRGB(Colors.Muted)
	pdf.SetTextColor(red, green, blue)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.Cell(0, 6, title)
	pdf.Ln(6)

	red, green, blue = HexToRGB(Colors.Border)
	pdf.SetDrawColor(red, green, blue)
	pdf.SetLineWidth(0.3)
	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.Ln(3)

	g.resetText(pdf)
}

func (g *PDFGenerator) addLabelValue(pdf *fpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(40, 6, label+":")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.MultiCell(g.contentWidth-40, 6, tr(OrDash(value)), "", "L", false)
}

func (g *PDFGenerator) addColoredValue(pdf *fpdf.Fpdf, tr func(string) string, label, value, color string) {
	red, green, blue := HexToRGB(color)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(40, 6, label+":")
	pdf.SetTextColor(red, green, blue)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 6, tr(OrDash(value)))
	pdf.Ln(6)
	g.resetText(pdf)
}

func (g *PDFGenerator) addDotLine(pdf *fpdf.Fpdf, tr func(string) string, color, text string) {
	red, green, blue := HexToRGB(color)
	pdf.SetFillColor(red, green, blue)
	pdf.Circle(g.margin+2, pdf.GetY()+3, 1.2, "F")
	pdf.SetX(g.margin + 6)
	pdf.MultiCell(g.contentWidth-6, 6, tr(text), "", "L", false)
	pdf.Ln(1)
}

func (g *PDFGenerator) addFooter(pdf *fpdf.Fpdf, tr func(string) string, r *domain.Report) {
	pdf.SetY(-15)

	red, green, blue := HexToRGB(Colors.Border)
	pdf.SetDrawColor(red, green, blue)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	red, green, blue = HexToRGB(Colors.Muted)
	pdf.SetTextColor(red, green, blue)
	pdf.SetFont("Helvetica", "", 8)
	pdf.Cell(0, 10, tr(r.ID+" · "+FormatTimestamp(r.GeneratedAt, g.loc)))

	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}

func (g *PDFGenerator) resetText(pdf *fpdf.Fpdf) {
	red, green, blue := HexToRGB(Colors.Ink)
	pdf.SetTextColor(red, green, blue)
}
