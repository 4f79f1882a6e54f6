package history

import (
	"context"

	"github.com/nao1215/flightdash/internal/model"
)

// Store appends and lists price points.
type Store interface {
	// Append records one price point.
	Append(ctx context.Context, p model.PricePoint) error

	// List returns every price point in insertion order.
	List(ctx context.Context) ([]model.PricePoint, error)
}
