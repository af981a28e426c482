// Package migrations embebe los SQL de esquema del servicio.
package migrations

import "embed"

//go:embed postgres/*.sql
var FS embed.FS
