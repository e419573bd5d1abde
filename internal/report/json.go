package report

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/DukeRupert/fleetintake/internal/domain"
)

//go:embed schema/report.schema.json
var reportSchema []byte

// =============================================================================
// JSON Generator
// =============================================================================

// JSONGenerator writes the report snapshot as indented JSON: the report id,
// the timestamp, the submitted form and the derived assessment (null for
// Quick Service). Every document is checked against the embedded report
// schema before it is written.
type JSONGenerator struct {
	loc *time.Location

	once   sync.Once
	schema *gojsonschema.Schema
	err    error
}

// NewJSONGenerator creates a JSON generator that writes timestamps in loc.
func NewJSONGenerator(loc *time.Location) *JSONGenerator {
	return &JSONGenerator{loc: loc}
}

// Format returns the output format of this generator.
func (g *JSONGenerator) Format() domain.ReportFormat {
	return domain.ReportFormatJSON
}

// Generate renders the report as JSON and writes it to w.
func (g *JSONGenerator) Generate(ctx context.Context, r *domain.Report, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	doc := r.Clone()
	if g.loc != nil {
		doc.GeneratedAt = doc.GeneratedAt.In(g.loc)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshal report: %w", err)
	}
	if err := g.check(data); err != nil {
		return 0, err
	}
	data = append(data, '\n')

	n, err := w.Write(data)
	return int64(n), err
}

// SchemaError lists the places where a document broke the report schema.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "report does not match schema: " + strings.Join(e.Problems, "; ")
}

func (g *JSONGenerator) check(data []byte) error {
	g.once.Do(func() {
		g.schema, g.err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(reportSchema))
	})
	if g.err != nil {
		return fmt.Errorf("load report schema: %w", g.err)
	}

	result, err := g.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate report: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		problems = append(problems, field+": "+desc.Description())
	}
	return &SchemaError{Problems: problems}
}
