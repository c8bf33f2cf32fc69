package migrations

import "embed"

// FS contains embedded SQLite migrations for tumorboard storage.
//
//go:embed *.sql
var FS embed.FS
