// Package logging provides structured logging on top of log/slog.
//
// Every record carries the service name and binary version. Output is
// text or JSON, on stderr unless stdout is configured explicitly:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # text, json
//	  output: "stderr"   # stderr, stdout
//
// The import engine takes the embedded *slog.Logger directly:
//
//	logger := logging.New(cfg.Logging, version)
//	parser := etsimport.NewParser(etsimport.Options{Logger: logger.Logger})
//
// Project passwords are never logged.
package logging
