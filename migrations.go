// Package sitepaths exposes assets embedded at the root of the module.
package sitepaths

import "embed"

// Migrations holds the goose SQL migrations of the domain and path store.
//
//go:embed migrations/*.sql
var Migrations embed.FS
