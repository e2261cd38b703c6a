package repository

import _ "embed"

// Schema is the DDL the repository expects. Applying it is left to the
// deployment; integration tests load it into a scratch database.
//
//go:embed schema.sql
var Schema string
