// Package migrations embeds the SQL migration files so binaries can
// migrate the database on startup without shipping loose files.
package migrations

import "embed"

// FS holds the embedded migration SQL files.
//
//go:embed *.sql
var FS embed.FS
