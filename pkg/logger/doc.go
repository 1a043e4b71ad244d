// Package logger provides a small factory around log/slog plus attribute
// helpers shared by the auth service.
//
// Loggers are constructed once at startup and injected into services; the
// attribute helpers keep key names consistent across components so log
// aggregation queries stay stable.
//
//	log := logger.New(
//		logger.WithFormat(logger.FormatJSON),
//		logger.WithService("forumauth"),
//	)
//	log.Info("account registered", logger.AccountID(id), logger.Email(email))
package logger
