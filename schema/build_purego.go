//go:build !cgo_sqlite
// +build !cgo_sqlite

package schema

// Default build. Uses the pure Go SQLite driver so introspection works
// without a C toolchain and cross-compiles cleanly.
//
// Build command:
//   CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver used to open SQLite files.
const DriverName = "sqlite"
