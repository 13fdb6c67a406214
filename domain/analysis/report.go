package analysis

import (
	"statsmed/domain/core"
)

// FigureKind names the plot an external renderer should produce.
type FigureKind string

const (
	FigureBlandAltman FigureKind = "bland_altman"
	FigureScatter     FigureKind = "scatter"
	FigureInterval    FigureKind = "interval"
)

// FigureSpec is the raw material handed to the plotting collaborator.
type FigureSpec struct {
	Kind   FigureKind         `json:"kind"`
	Title  string             `json:"title"`
	X      []float64          `json:"x,omitempty"`
	Y      []float64          `json:"y,omitempty"`
	Lines  map[string]float64 `json:"lines,omitempty"`
	XLabel string             `json:"x_label,omitempty"`
	YLabel string             `json:"y_label,omitempty"`
}

// FigureRef is an opaque handle returned by the renderer.
type FigureRef struct {
	URI       string `json:"uri"`
	MediaType string `json:"media_type"`
}

// TestReport is the final rendered output of an analysis.
type TestReport struct {
	ID          core.ReportID    `json:"id"`
	Family      Family           `json:"family"`
	Label       string           `json:"label"`
	Description string           `json:"description"`
	Body        string           `json:"body"`
	Figure      *FigureRef       `json:"figure,omitempty"`
	Fingerprint core.Fingerprint `json:"fingerprint"`
	Outcome     *Outcome         `json:"-"`
}
