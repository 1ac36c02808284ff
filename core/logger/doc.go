// Package logger provides nil-safe slog attribute helpers shared by the
// lifecycle packages.
//
//	log.Info("certificate issued",
//		logger.Cert("example.com"),
//		logger.Domains(req.Domains),
//		logger.Elapsed(start),
//	)
//
// Helpers return an empty slog.Attr for nil or empty values, so call sites
// never need explicit guards.
package logger
