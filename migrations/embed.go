// Package migrations embeds the SQL migration files so the migrate
// binary can run without the files on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
