// Package migrations embeds the SQL schema applied by clinicctl migrate.
package migrations

import "embed"

// Files holds every versioned migration, named NNNN_description.sql.
//
//go:embed *.sql
var Files embed.FS
