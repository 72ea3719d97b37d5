// Package migrations embeds the staging schema for golang-migrate.
package migrations

import "embed"

// FS holds the numbered up/down scripts.
//
//go:embed *.sql
var FS embed.FS

//Personal.AI order the ending
