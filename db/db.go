// Package db carries the PostgreSQL schema so tooling and the
// integration test harness can apply it without shelling out to psql.
package db

import _ "embed"

//go:embed schema.sql
var Schema string
