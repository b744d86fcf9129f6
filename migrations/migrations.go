// Package migrations embeds the SQL schema of the postgres and clickhouse stores.
package migrations

import "embed"

// Postgres holds the golang-migrate versioned files of the relational store
//
//go:embed postgres/*.sql
var Postgres embed.FS

// ClickHouse holds idempotent DDL applied in file name order
//
//go:embed clickhouse/*.sql
var ClickHouse embed.FS
