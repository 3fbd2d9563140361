// Package op is the storage interface the query executor runs against.
//
// Shared holds the process-wide handles: the record cache, the registry of
// per-database repositories, the system database with user accounts, and
// the configuration. Interface binds them to one session's current
// database and user, checks the user's permission level and reports
// failures in two kinds:
//
//   - *InternalError carries an ErrorCode (KeyExists, KeyNotExists,
//     NotFound) that the caller turns into a status and message.
//   - *ExternalError carries a final wire.Status and message.
//
// Usage:
//
//	shared, err := op.NewShared(config.Default())
//	session := op.NewInterface(shared, "default", nil)
//	err = session.Insert("greeting", map[string]any{"text": "hi"})
//
// The layering is:
//
//	Query Executor (db/)
//	     ↓
//	Storage Interface (op/)     ← This package
//	     ↓
//	Persistence (ps/)
//	     ↓
//	Git Storage (go-git)
package op
