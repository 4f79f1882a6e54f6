package model

import "time"

// PricePoint is one row of the price history: the cheapest price seen by
// a processed run and when it was recorded.
type PricePoint struct {
	RecordedAt time.Time `json:"recorded_at"` //nolint:tagliatelle // matches the history CSV
	MinPrice   int64     `json:"min_price"`   //nolint:tagliatelle // matches the history CSV
}

// LowestPrice returns the lowest price in points and whether there was any.
func LowestPrice(points []PricePoint) (int64, bool) {
	if len(points) == 0 {
		return 0, false
	}
	lowest := points[0].MinPrice
	for _, p := range points[1:] {
		if p.MinPrice < lowest {
			lowest = p.MinPrice
		}
	}
	return lowest, true
}

// Ptr returns a pointer to v. It is handy for the optional numeric fields
// of the API and summary types.
func Ptr[T any](v T) *T {
	return &v
}
