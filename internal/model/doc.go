// Package model defines the data structures shared by flightdash packages.
//
// This package contains the following main types:
//   - SearchResponse: the subset of the flight search API response we read
//   - RawResponse: the envelope stored in data/raw/response.json
//   - Summary and Offer: the processed result written to summary.json
//   - PricePoint: one row of price history
//   - Run: the state of one pipeline execution
//
// Models live in their own package because rapidapi, summarize, history,
// database, dashboard and pipeline all need them; keeping them here avoids
// import cycles.
//
// Summary and Offer keep the JSON field names of the summary.json format
// so files written by earlier runs remain readable.
package model
