// Package migrations embeds the lookup journal schema.
package migrations

import "embed"

// FS holds the .sql files applied by storage.RunMigrations.
//
//go:embed *.sql
var FS embed.FS
