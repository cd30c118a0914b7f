// Package db embeds the catalog read-model schema.
package db

import _ "embed"

// Schema contains the DDL for the catalog tables. Statements are idempotent.
//
//go:embed migrations/001_catalog.sql
var Schema string
