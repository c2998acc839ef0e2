// Package migrations embeds the SQLite schema for chat history and the food catalog.
package migrations

import "embed"

// FS holds the embedded SQL migration files.
//
//go:embed *.sql
var FS embed.FS
