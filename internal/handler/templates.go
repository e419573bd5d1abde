package handler

import (
	"fmt"
	"html/template"
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DukeRupert/fleetintake/internal/report"
)

// TemplateFuncs returns the functions available to every template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// cn merges class lists; a later conflicting class wins
		// ("border-slate-300" then "border-red-500" keeps only the red one).
		"cn": func(classes ...string) string {
			return twmerge.Merge(classes...)
		},

		"ternary": func(condition bool, trueVal, falseVal interface{}) interface{} {
			if condition {
				return trueVal
			}
			return falseVal
		},

		"upper": func(v interface{}) string {
			return strings.ToUpper(fmt.Sprint(v))
		},
		"title": func(v interface{}) string {
			return cases.Title(language.English).String(fmt.Sprint(v))
		},

		// Report presentation
		"dash": report.OrDash,
		"tone": tone,
	}
}

// tone maps a palette colour to the CSS modifier used by the templates
// (tone-good, tone-text-warning, ...).
func tone(color string) string {
	switch color {
	case report.Colors.Good:
		return "good"
	case report.Colors.Warning:
		return "warning"
	case report.Colors.Critical:
		return "critical"
	case report.Colors.Info:
		return "info"
	}
	return "muted"
}
