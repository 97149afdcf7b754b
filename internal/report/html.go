package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/osteele/liquid"
)

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{ grid.client_name | escape }} escalation history</title>
<style>
table { border-collapse: collapse; font-family: sans-serif; font-size: 13px; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: right; }
th:first-child, td:first-child { text-align: left; }
</style>
</head>
<body>
<h1>{{ grid.client_name | escape }}</h1>
<p>Generated {{ grid.generated_at }}</p>
{% if grid.rows.size == 0 %}<p>No recorded periods.</p>{% else %}
<table>
<thead><tr><th>Period</th>{% for col in grid.columns %}<th>{{ col.title | escape }}</th>{% endfor %}<th>Total</th></tr></thead>
<tbody>
{% for row in grid.rows %}<tr><td>{{ row.period | period_label: grid.cadence }}</td>{% for cell in row.cells %}<td>{% if cell %}{{ cell | currency }}{% else %}&mdash;{% endif %}</td>{% endfor %}<td>{{ row.total | currency }}</td></tr>
{% endfor %}</tbody>
</table>
{% endif %}
</body>
</html>
`

// HTMLRenderer renders grids through a Liquid template.
type HTMLRenderer struct {
	engine *liquid.Engine
	tpl    *liquid.Template
}

// NewHTMLRenderer parses the report template and registers its filters.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	engine := liquid.NewEngine()

	// {{ amount | currency }}
	engine.RegisterFilter("currency", func(value interface{}) string {
		var f float64
		switch v := value.(type) {
		case float64:
			f = v
		case int:
			f = float64(v)
		case int64:
			f = float64(v)
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return v
			}
			f = parsed
		default:
			return fmt.Sprintf("%v", value)
		}
		return withDelimiter(strconv.FormatFloat(f, 'f', 2, 64))
	})

	// {{ period | period_label: cadence }}
	engine.RegisterFilter("period_label", func(value interface{}, cadence string) string {
		var p int
		switch v := value.(type) {
		case int:
			p = v
		case int64:
			p = int(v)
		case float64:
			p = int(v)
		default:
			return fmt.Sprintf("%v", value)
		}
		return PeriodLabel(p, domain.Cadence(cadence))
	})

	tpl, err := engine.ParseString(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &HTMLRenderer{engine: engine, tpl: tpl}, nil
}

// Render returns the HTML document for g.
func (r *HTMLRenderer) Render(g *Grid) ([]byte, error) {
	out, err := r.tpl.Render(liquid.Bindings{"grid": bindings(g)})
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return out, nil
}

// bindings flattens the grid into the maps Liquid walks.
func bindings(g *Grid) map[string]interface{} {
	cols := make([]map[string]interface{}, len(g.Columns))
	for i, c := range g.Columns {
		cols[i] = map[string]interface{}{
			"campaign": c.Campaign,
			"label":    c.Label,
			"title":    c.Title(),
			"currency": c.Currency,
		}
	}
	rows := make([]map[string]interface{}, len(g.Rows))
	for i, r := range g.Rows {
		cells := make([]interface{}, len(r.Cells))
		for j, c := range r.Cells {
			if c != nil {
				cells[j] = *c
			}
		}
		rows[i] = map[string]interface{}{
			"period": r.Period,
			"cells":  cells,
			"total":  r.Total,
		}
	}
	return map[string]interface{}{
		"client_id":    g.ClientID,
		"client_name":  g.ClientName,
		"cadence":      string(g.Cadence),
		"generated_at": g.GeneratedAt.Format("2006-01-02 15:04 MST"),
		"columns":      cols,
		"rows":         rows,
	}
}

// withDelimiter inserts thousands separators into a fixed-point string.
func withDelimiter(s string) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String() + frac
	if neg {
		return "-" + out
	}
	return out
}
