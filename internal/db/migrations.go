package db

import "embed"

// Migrations holds the goose migrations of the record store.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations to pass to pg.Migrate.
const MigrationsDir = "migrations"
