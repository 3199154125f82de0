package migrations

import "embed"

// FS contains the embedded SQLite schema of the notification journal
//
//go:embed *.sql
var FS embed.FS
