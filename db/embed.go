// Package db holds the embedded schema migrations and seed data.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS

//go:embed seed/*.json
var Seed embed.FS

const (
	MigrationsDir = "migrations"
	SeedFile      = "seed/seed_data.json"
)
