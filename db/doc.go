// Package db is the query execution core of CommitKV.
//
// An Executor takes a parsed query (a query.Node), checks that its shape
// is one the grammar allows, runs it against a session-bound Storage and
// returns either a wire.Response or a *wire.Error.
//
//	executor := db.NewExecutor(op.NewInterface(shared, "default", nil), db.Options{})
//	resp, werr := executor.ExecuteQuery(`insert {"name": "Alice"} into user1`)
//
// Shape errors are reported as InvalidQuery and never reach storage.
// Storage errors carrying an op.ErrorCode are translated through
// ErrorTable; errors that already carry a status pass through unchanged.
package db
