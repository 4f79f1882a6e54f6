// Package summarize turns a flight search response into a Summary.
//
// The provider's aggregation block is copied as is. Offers are examined
// one by one: only the leading window of offers is considered, each offer
// is decoded on its own so a malformed one is skipped instead of failing
// the run, and the cheapest offers are kept per stop category and overall.
package summarize
