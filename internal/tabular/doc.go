// Package tabular exchanges the display table with spreadsheets and JSON.
//
// Export writes one header row of column titles followed by one row per
// sample. Import reads the same shape back, matching header cells to
// columns by title or key, and applies the values positionally onto the
// existing table so hidden record details survive the round trip.
package tabular
