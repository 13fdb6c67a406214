package ports

import (
	"context"

	"statsmed/domain/analysis"
)

// FigureRenderer produces plots outside the core. The engine hands it raw
// values and keeps only the returned reference.
type FigureRenderer interface {
	Render(ctx context.Context, spec analysis.FigureSpec) (analysis.FigureRef, error)
}
