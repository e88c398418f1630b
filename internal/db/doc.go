// Package db is the Postgres record store of users, files, folders and
// sessions.
//
// Queries wraps any DBTX (a pgx pool, connection or transaction). Driver
// errors are translated into ErrNotFound, ErrDuplicate, ErrInvalidReference
// and ErrConstraint, so callers can match them with errors.Is.
//
// The schema ships as embedded goose migrations:
//
//	pool, _ := pg.Connect(ctx, cfg)
//	_ = pg.Migrate(ctx, pool, db.Migrations, db.MigrationsDir, cfg, log)
//	q := db.New(pool)
package db
