// Package logger builds log/slog loggers for the service.
//
// NewFromConfig picks text output at debug level in development and JSON at
// info level in staging and production. Context extractors registered with
// WithContextExtractors add request-scoped attributes such as request_id to
// every record logged with a context:
//
//	log := logger.NewFromConfig(cfg,
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "file uploaded", logger.FileID(id), logger.ObjectKey(key))
//
// The attribute helpers keep key names consistent across packages.
package logger
