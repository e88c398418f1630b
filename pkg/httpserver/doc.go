// Package httpserver runs the API's http.Server with graceful shutdown and
// exposes liveness and readiness handlers.
//
//	srv := httpserver.NewFromConfig(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithShutdownHook(func(context.Context) error { pool.Close(); return nil }),
//	)
//	return srv.Run(ctx, router)
//
// Run returns when ctx is canceled or the process receives SIGINT or SIGTERM.
package httpserver
