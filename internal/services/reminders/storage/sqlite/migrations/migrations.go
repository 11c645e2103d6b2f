// Package migrations embeds the reminders store schema.
package migrations

import "embed"

// FS holds the SQL migration files applied at store open.
//
//go:embed *.sql
var FS embed.FS
