// Package sqliteexternal provides the optional CGO SQLite driver for the
// chunk catalog.
//
// Build with:
//
//	CGO_ENABLED=1 go build -tags cgo_sqlite ./cmd/pngme
//
// Without the tag, core/sqlite uses the pure Go modernc.org/sqlite driver
// and this package compiles to nothing.
package sqliteexternal
