// Package migrations embeds the PostgreSQL schema migrations in
// golang-migrate's file naming scheme.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
