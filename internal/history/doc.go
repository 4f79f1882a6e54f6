// Package history stores the minimum price of every processed run.
//
// Store is implemented by CSVStore (the price_log.csv file kept next to
// the other data files) and by database.DB. The dashboard reads the
// history back to draw the price trend.
package history
