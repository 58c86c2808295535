// Package logging provides structured logging for somectl.
//
// This package wraps Go's log/slog to write JSON-formatted logs to a
// debug.log file in the client state directory. The TUI owns the terminal,
// so log output never goes to stdout while it is running.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(stateDir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Debug("request finished", "method", "GET", "path", "/posts", "status", 200)
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	tenantLogger := logger.WithUser(session.UserID).WithTenant(tenant.ID)
//	tenantLogger.WithPost(post.ID).Info("post scheduled")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"post scheduled","user_id":"u-1","tenant_id":"t-1","post_id":"p-1"}
//
// # Log Rotation
//
// The log file is rotated by size. Rotated files are named debug.log.1,
// debug.log.2 and so on, where .1 is the most recent backup. A MaxSizeMB of
// zero disables rotation.
//
// # Testing
//
// For testing, use [NopLogger] to discard all log output.
//
// # Configuration
//
//	logging:
//	  enabled: true
//	  level: info
//	  max_size_mb: 10
//	  max_backups: 3
package logging
