//go:build cgo_sqlite
// +build cgo_sqlite

package schema

// Compiled with the cgo_sqlite tag. Uses the C SQLite driver, which is
// faster on large databases but needs a C toolchain.
//
// Build command:
//   CGO_ENABLED=1 go build -tags cgo_sqlite ./...

import (
	_ "github.com/mattn/go-sqlite3"
)

// DriverName is the database/sql driver used to open SQLite files.
const DriverName = "sqlite3"
