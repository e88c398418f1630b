// Package pg opens pgx connection pools, runs goose migrations and classifies
// PostgreSQL errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, db.Migrations, db.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
// Repositories map driver errors with IsNotFoundError, IsDuplicateKeyError,
// IsForeignKeyViolationError and IsCheckViolationError.
package pg
