// Package results persists evaluation campaigns: a CSV writer for the
// result table and a SQLite-backed store that keeps named runs with
// their full row data for later inspection.
package results
