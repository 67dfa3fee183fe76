// Package logging provides structured logging that never writes secrets.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON and text formats
//   - Redaction of attributes whose key names a secret (password, token, ...)
//   - Masking of tracked secret values wherever they appear in a message
//   - Request IDs carried through context
//
// # Usage
//
//	redactor := logging.NewRedactor()
//	logger, err := logging.New(logging.Config{
//	    Level:    "info",
//	    Format:   "json",
//	    Redactor: redactor,
//	})
//
//	logger.Info("keystore loaded",
//	    "path", "/etc/keyport/server.p12",
//	    "keystore_password", pw,  // [REDACTED]
//	)
//
// # Secret Tracking
//
// Redactor implements secrets.Tracker. Once a resolved password has been
// tracked, any log message or string attribute containing it is masked, even
// when it arrives under an innocuous key such as "error".
package logging
