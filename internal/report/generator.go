package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
)

// Format is an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "text/csv; charset=utf-8"
}

// ErrNoSink is returned by Export when no sink is configured.
var ErrNoSink = errors.New("no report sink configured")

// Export describes a stored report.
type Export struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Format   Format `json:"format"`
	Bytes    int    `json:"bytes"`
}

// Generator builds, renders and exports client history reports.
type Generator struct {
	src  Source
	html *HTMLRenderer
	sink Sink
	now  func() time.Time
}

// NewGenerator creates a generator. sink may be nil, in which case
// Export fails with ErrNoSink.
func NewGenerator(src Source, sink Sink) (*Generator, error) {
	html, err := NewHTMLRenderer()
	if err != nil {
		return nil, err
	}
	return &Generator{src: src, html: html, sink: sink, now: time.Now}, nil
}

// Grid builds the history grid for a client.
func (g *Generator) Grid(ctx context.Context, clientID string) (*Grid, error) {
	return Build(ctx, g.src, clientID, g.now())
}

// Render builds the grid and renders it in the given format.
func (g *Generator) Render(ctx context.Context, clientID string, f Format) ([]byte, error) {
	grid, err := g.Grid(ctx, clientID)
	if err != nil {
		return nil, err
	}
	switch f {
	case FormatCSV:
		var buf bytes.Buffer
		if err := WriteCSV(&buf, grid); err != nil {
			return nil, fmt.Errorf("write csv: %w", err)
		}
		return buf.Bytes(), nil
	case FormatHTML:
		return g.html.Render(grid)
	}
	return nil, fmt.Errorf("unknown report format %q", f)
}

// Export renders the report and stores it through the sink.
func (g *Generator) Export(ctx context.Context, clientID string, f Format) (*Export, error) {
	if g.sink == nil {
		return nil, ErrNoSink
	}
	data, err := g.Render(ctx, clientID, f)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%s/history-%s.%s", clientID, g.now().UTC().Format("20060102-150405"), f)
	loc, err := g.sink.Put(ctx, name, f.ContentType(), data)
	if err != nil {
		return nil, err
	}
	return &Export{Name: name, Location: loc, Format: f, Bytes: len(data)}, nil
}
